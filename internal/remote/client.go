// Package remote talks to the authoritative document-session backend. The
// client is stateless: every call returns normalized entities and keeps
// nothing between calls.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"ai-docchat-client/internal/constant"
	"ai-docchat-client/internal/dto"
	"ai-docchat-client/internal/entity"
	"ai-docchat-client/internal/mapper"
	"ai-docchat-client/internal/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const module = "remote"

// maxErrorBody caps how much of a failed response is read looking for an
// {error} payload.
const maxErrorBody = 64 * 1024

type Client struct {
	BaseURL string
	Client  *http.Client

	mapper *mapper.ChatMapper
	log    logger.ILogger
	tracer trace.Tracer
	token  string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.Client = hc }
}

func WithLogger(l logger.ILogger) Option {
	return func(c *Client) { c.log = l }
}

// WithToken sends the token as a bearer credential on every request, over
// whichever http.Client the other options chose.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func bearerClient(base *http.Client, token string) *http.Client {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	authed.Timeout = base.Timeout
	return authed
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = constant.DefaultRequestTimeout
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		mapper:  mapper.NewChatMapper(),
		log:     logger.NewNopLogger(),
		tracer:  otel.Tracer("ai-docchat-client/remote"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token != "" {
		c.Client = bearerClient(c.Client, c.token)
	}
	return c
}

// Answer is the backend's reply to a question.
type Answer struct {
	Text    string
	Sources []string
}

// Sessions

func (c *Client) ListSessions(ctx context.Context) ([]entity.Group, error) {
	var out []dto.SessionResponse
	if err := c.doJSON(ctx, "list sessions", http.MethodGet, "/sessions", nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.SessionsToEntities(out), nil
}

func (c *Client) CreateSession(ctx context.Context, name string) (entity.Group, error) {
	var out dto.SessionResponse
	if err := c.doJSON(ctx, "create session", http.MethodPost, "/sessions", dto.CreateSessionRequest{Name: name}, &out); err != nil {
		return entity.Group{}, err
	}
	g := c.mapper.SessionToEntity(out)
	if g.Name == "" {
		g.Name = name
	}
	return g, nil
}

func (c *Client) RenameSession(ctx context.Context, id, name string) error {
	return c.doJSON(ctx, "rename session", http.MethodPut, "/sessions/"+url.PathEscape(id), dto.RenameSessionRequest{Name: name}, nil)
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.doJSON(ctx, "delete session", http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

// Files

func (c *Client) ListFiles(ctx context.Context, sessionId string) ([]entity.File, error) {
	var out []dto.FileResponse
	if err := c.doJSON(ctx, "list files", http.MethodGet, sessionPath(sessionId, "files"), nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.FilesToEntities(out), nil
}

// UploadFile sends the blob as multipart field "file". The extension is
// checked against the allow-list before anything goes on the wire.
func (c *Client) UploadFile(ctx context.Context, sessionId, filename string, blob io.Reader) (entity.File, error) {
	ext, err := FileType(filename)
	if err != nil {
		return entity.File{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return entity.File{}, fmt.Errorf("build upload body: %w", err)
	}
	if _, err := io.Copy(part, blob); err != nil {
		return entity.File{}, fmt.Errorf("read upload blob: %w", err)
	}
	if err := mw.Close(); err != nil {
		return entity.File{}, fmt.Errorf("build upload body: %w", err)
	}

	var out dto.FileResponse
	if err := c.do(ctx, "upload file", http.MethodPost, sessionPath(sessionId, "upload"), mw.FormDataContentType(), &body, &out); err != nil {
		return entity.File{}, err
	}

	f := c.mapper.FileToEntity(out)
	if f.Name == "" {
		f.Name = filepath.Base(filename)
	}
	if f.Type == "" {
		f.Type = ext
	}
	if f.Id == "" {
		// Older backends only answer with {path}; the path is unique per upload.
		f.Id = f.Path
	}
	return f, nil
}

func (c *Client) RenameFile(ctx context.Context, sessionId, fileId, name string) error {
	return c.doJSON(ctx, "rename file", http.MethodPut, sessionPath(sessionId, "files", fileId), dto.RenameItemRequest{Name: name}, nil)
}

func (c *Client) DeleteFile(ctx context.Context, sessionId, fileId string) error {
	return c.doJSON(ctx, "delete file", http.MethodDelete, sessionPath(sessionId, "files", fileId), nil, nil)
}

// Links

func (c *Client) ListLinks(ctx context.Context, sessionId string) ([]entity.Link, error) {
	var out []dto.LinkResponse
	if err := c.doJSON(ctx, "list links", http.MethodGet, sessionPath(sessionId, "links"), nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.LinksToEntities(out), nil
}

func (c *Client) AddLink(ctx context.Context, sessionId, rawURL, name string) (entity.Link, error) {
	var out dto.LinkResponse
	if err := c.doJSON(ctx, "add link", http.MethodPost, sessionPath(sessionId, "links"), dto.AddLinkRequest{Url: rawURL, Name: name}, &out); err != nil {
		return entity.Link{}, err
	}
	if out.Url == "" {
		out.Url = rawURL
	}
	if out.Name == "" {
		out.Name = name
	}
	return c.mapper.LinkToEntity(out), nil
}

func (c *Client) RenameLink(ctx context.Context, sessionId, linkId, name string) error {
	return c.doJSON(ctx, "rename link", http.MethodPut, sessionPath(sessionId, "links", linkId), dto.RenameItemRequest{Name: name}, nil)
}

func (c *Client) DeleteLink(ctx context.Context, sessionId, linkId string) error {
	return c.doJSON(ctx, "delete link", http.MethodDelete, sessionPath(sessionId, "links", linkId), nil, nil)
}

// Chat

func (c *Client) FetchChatHistory(ctx context.Context, sessionId string) ([]entity.ChatMessage, error) {
	var out []dto.ChatHistoryResponse
	if err := c.doJSON(ctx, "fetch chat history", http.MethodGet, "/chat_history/"+url.PathEscape(sessionId), nil, &out); err != nil {
		return nil, err
	}
	return c.mapper.HistoryToEntities(out), nil
}

func (c *Client) Ask(ctx context.Context, sessionId, question string, fileIds, linkIds []string) (Answer, error) {
	req := dto.AskRequest{
		Question: question,
		FileIds:  nonNil(fileIds),
		LinkIds:  nonNil(linkIds),
	}
	var out dto.AskResponse
	if err := c.doJSON(ctx, "ask", http.MethodPost, sessionPath(sessionId, "ask"), req, &out); err != nil {
		return Answer{}, err
	}
	return Answer{Text: out.Answer, Sources: c.mapper.SourcesToStrings(out.Sources)}, nil
}

// FileType returns the lower-case extension of filename if it is allowed.
func FileType(filename string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !constant.AllowedFileTypes[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Base(filename))
	}
	return ext, nil
}

func sessionPath(sessionId string, parts ...string) string {
	var b strings.Builder
	b.WriteString("/sessions/")
	b.WriteString(url.PathEscape(sessionId))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, contentType, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "remote."+strings.ReplaceAll(op, " ", "_"),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.log.Warn(module, "Request failed", map[string]interface{}{"op": op, "error": err.Error()})
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.log.Debug(module, "Request completed", map[string]interface{}{
		"op":       op,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := &Error{Op: op, Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var payload dto.ErrorResponse
		if json.Unmarshal(raw, &payload) == nil {
			rerr.Message = payload.Error
		}
		c.log.Warn(module, "Backend rejected request", map[string]interface{}{
			"op":     op,
			"status": resp.StatusCode,
			"error":  rerr.Message,
		})
		return rerr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
