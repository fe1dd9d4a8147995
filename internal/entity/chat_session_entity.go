package entity

// Group is a named document session. Files, links and the chat transcript all
// hang off a group and go away with it.
type Group struct {
	Id    string
	Name  string
	Files []File
	Links []Link
}

// Clone returns a deep copy so callers can't alias the store's slices.
func (g Group) Clone() Group {
	out := Group{Id: g.Id, Name: g.Name}
	if g.Files != nil {
		out.Files = append(make([]File, 0, len(g.Files)), g.Files...)
	}
	if g.Links != nil {
		out.Links = append(make([]Link, 0, len(g.Links)), g.Links...)
	}
	return out
}

// FileIndex returns the position of the file with the given id, or -1.
func (g Group) FileIndex(id string) int {
	for i := range g.Files {
		if g.Files[i].Id == id {
			return i
		}
	}
	return -1
}

// LinkIndex returns the position of the link with the given id, or -1.
func (g Group) LinkIndex(id string) int {
	for i := range g.Links {
		if g.Links[i].Id == id {
			return i
		}
	}
	return -1
}
