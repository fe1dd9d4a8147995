package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexibleID accepts ids encoded as JSON strings or numbers and always
// marshals back as a string.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*f = FlexibleID(n.String())
	return nil
}

func (f FlexibleID) String() string {
	return string(f)
}

type SessionResponse struct {
	Id   FlexibleID `json:"id"`
	Name string     `json:"name"`
}

type CreateSessionRequest struct {
	Name string `json:"name" validate:"required"`
}

type RenameSessionRequest struct {
	Name string `json:"name" validate:"required"`
}

type FileResponse struct {
	Id   FlexibleID `json:"id"`
	Name string     `json:"name"`
	Type string     `json:"type"`
	Path string     `json:"path"`
}

type LinkResponse struct {
	Id   FlexibleID `json:"id"`
	Name string     `json:"name"`
	Url  string     `json:"url"`
}

type AddLinkRequest struct {
	Url  string `json:"url" validate:"required"`
	Name string `json:"name,omitempty"`
}

type RenameItemRequest struct {
	Name string `json:"name" validate:"required"`
}

// ErrorResponse is the optional body of a non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
