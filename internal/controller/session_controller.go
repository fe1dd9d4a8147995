package controller

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ai-docchat-client/internal/constant"
	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/pkg/logger"
	"ai-docchat-client/internal/pkg/serverutils"
	"ai-docchat-client/internal/remote"
	"ai-docchat-client/internal/repository/memory"

	"github.com/gofiber/fiber/v2"
)

const module = "devserver"

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
}

// sessionController serves the document-session API from memory. Answers are
// canned: it reports what it was asked about and cites the selected items.
type sessionController struct {
	repo      *memory.SessionRepository
	uploadDir string
	log       logger.ILogger
}

func NewSessionController(repo *memory.SessionRepository, uploadDir string, log logger.ILogger) ISessionController {
	return &sessionController{repo: repo, uploadDir: uploadDir, log: log}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/sessions")
	h.Get("", c.List)
	h.Post("", c.Create)
	h.Put(":id", c.Rename)
	h.Delete(":id", c.Delete)

	h.Get(":id/files", c.ListFiles)
	h.Post(":id/upload", c.Upload)
	h.Put(":id/files/:itemId", c.RenameFile)
	h.Delete(":id/files/:itemId", c.DeleteFile)

	h.Get(":id/links", c.ListLinks)
	h.Post(":id/links", c.AddLink)
	h.Put(":id/links/:itemId", c.RenameLink)
	h.Delete(":id/links/:itemId", c.DeleteLink)

	h.Post(":id/ask", c.Ask)

	r.Get("/chat_history/:id", c.History)
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	groups := c.repo.List()
	res := make([]dto.SessionResponse, 0, len(groups))
	for _, g := range groups {
		res = append(res, sessionResponse(g))
	}
	return ctx.JSON(res)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	g, err := c.repo.Create(req.Name)
	if err != nil {
		return mapRepoError(err)
	}
	c.log.Info(module, "Session created", map[string]interface{}{"id": g.Id, "name": g.Name})
	return ctx.Status(fiber.StatusCreated).JSON(sessionResponse(g))
}

func (c *sessionController) Rename(ctx *fiber.Ctx) error {
	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	g, err := c.repo.Rename(ctx.Params("id"), req.Name)
	if err != nil {
		return mapRepoError(err)
	}
	return ctx.JSON(sessionResponse(g))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if err := c.repo.Delete(id); err != nil {
		return mapRepoError(err)
	}
	if c.uploadDir != "" {
		_ = os.RemoveAll(filepath.Join(c.uploadDir, id))
	}
	c.log.Info(module, "Session deleted", map[string]interface{}{"id": id})
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *sessionController) ListFiles(ctx *fiber.Ctx) error {
	g, ok := c.repo.Get(ctx.Params("id"))
	if !ok {
		return mapRepoError(memory.ErrSessionNotFound)
	}
	res := make([]dto.FileResponse, 0, len(g.Files))
	for _, f := range g.Files {
		res = append(res, fileResponse(f))
	}
	return ctx.JSON(res)
}

func (c *sessionController) Upload(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if _, ok := c.repo.Get(id); !ok {
		return mapRepoError(memory.ErrSessionNotFound)
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file part")
	}
	name := filepath.Base(fh.Filename)
	if name == "" || name == "." {
		return fiber.NewError(fiber.StatusBadRequest, "No selected file")
	}
	ext, err := remote.FileType(name)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, remote.ErrUnsupportedFileType.Error())
	}

	dir := filepath.Join(c.uploadDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := ctx.SaveFile(fh, path); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	f, err := c.repo.AddFile(id, entity.File{Name: name, Type: ext, Path: path})
	if err != nil {
		return mapRepoError(err)
	}
	c.log.Info(module, "File uploaded", map[string]interface{}{"session": id, "file": name, "size": fh.Size})
	return ctx.Status(fiber.StatusCreated).JSON(fileResponse(f))
}

func (c *sessionController) RenameFile(ctx *fiber.Ctx) error {
	return c.renameItem(ctx, entity.KindFile)
}

func (c *sessionController) DeleteFile(ctx *fiber.Ctx) error {
	return c.deleteItem(ctx, entity.KindFile)
}

func (c *sessionController) ListLinks(ctx *fiber.Ctx) error {
	g, ok := c.repo.Get(ctx.Params("id"))
	if !ok {
		return mapRepoError(memory.ErrSessionNotFound)
	}
	res := make([]dto.LinkResponse, 0, len(g.Links))
	for _, l := range g.Links {
		res = append(res, linkResponse(l))
	}
	return ctx.JSON(res)
}

func (c *sessionController) AddLink(ctx *fiber.Ctx) error {
	var req dto.AddLinkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Url = strings.TrimSpace(req.Url)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	l, err := c.repo.AddLink(ctx.Params("id"), entity.Link{Name: strings.TrimSpace(req.Name), Url: req.Url})
	if err != nil {
		return mapRepoError(err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(linkResponse(l))
}

func (c *sessionController) RenameLink(ctx *fiber.Ctx) error {
	return c.renameItem(ctx, entity.KindLink)
}

func (c *sessionController) DeleteLink(ctx *fiber.Ctx) error {
	return c.deleteItem(ctx, entity.KindLink)
}

func (c *sessionController) History(ctx *fiber.Ctx) error {
	msgs, err := c.repo.History(ctx.Params("id"))
	if err != nil {
		return mapRepoError(err)
	}
	res := make([]dto.ChatHistoryResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, dto.ChatHistoryResponse{Message: m.Text, IsUser: m.IsUser})
	}
	return ctx.JSON(res)
}

func (c *sessionController) Ask(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	var req dto.AskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return fiber.NewError(fiber.StatusBadRequest, constant.ChatEnterQuestion)
	}

	g, ok := c.repo.Get(id)
	if !ok {
		return mapRepoError(memory.ErrSessionNotFound)
	}

	sources := make([]dto.FlexibleID, 0)
	for _, fid := range req.FileIds {
		if i := g.FileIndex(fid); i >= 0 {
			sources = append(sources, dto.FlexibleID(g.Files[i].Name))
		}
	}
	for _, lid := range req.LinkIds {
		if i := g.LinkIndex(lid); i >= 0 {
			sources = append(sources, dto.FlexibleID(g.Links[i].Url))
		}
	}
	if len(sources) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No documents were found for the selected files or links.")
	}

	answer := fmt.Sprintf("You asked %q about %d document(s) in %s.", req.Question, len(sources), g.Name)
	if err := c.repo.AppendHistory(id, entity.UserMessage(req.Question), entity.BotMessage(answer)); err != nil {
		return mapRepoError(err)
	}
	return ctx.JSON(dto.AskResponse{Answer: answer, Sources: sources})
}

func (c *sessionController) renameItem(ctx *fiber.Ctx, kind entity.ItemKind) error {
	var req dto.RenameItemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := c.repo.RenameItem(ctx.Params("id"), ctx.Params("itemId"), kind, req.Name); err != nil {
		return mapRepoError(err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *sessionController) deleteItem(ctx *fiber.Ctx, kind entity.ItemKind) error {
	if err := c.repo.DeleteItem(ctx.Params("id"), ctx.Params("itemId"), kind); err != nil {
		return mapRepoError(err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, memory.ErrSessionNotFound), errors.Is(err, memory.ErrItemNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, memory.ErrDuplicateName):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

func sessionResponse(g entity.Group) dto.SessionResponse {
	return dto.SessionResponse{Id: dto.FlexibleID(g.Id), Name: g.Name}
}

func fileResponse(f entity.File) dto.FileResponse {
	return dto.FileResponse{Id: dto.FlexibleID(f.Id), Name: f.Name, Type: f.Type, Path: f.Path}
}

func linkResponse(l entity.Link) dto.LinkResponse {
	return dto.LinkResponse{Id: dto.FlexibleID(l.Id), Name: l.Name, Url: l.Url}
}
