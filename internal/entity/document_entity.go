package entity

// ItemKind distinguishes what a menu or mutation targets.
type ItemKind string

const (
	KindGroup ItemKind = "group"
	KindFile  ItemKind = "file"
	KindLink  ItemKind = "link"
)

type File struct {
	Id   string
	Name string
	Type string // extension without the dot: pdf, docx, doc, xlsx
	Path string // storage reference handed back by the upload endpoint
}

type Link struct {
	Id   string
	Name string
	Url  string
}
