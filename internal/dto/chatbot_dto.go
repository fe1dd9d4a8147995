package dto

type ChatHistoryResponse struct {
	Message string `json:"message"`
	IsUser  bool   `json:"is_user"`
}

type AskRequest struct {
	Question string   `json:"question" validate:"required"`
	FileIds  []string `json:"file_ids"`
	LinkIds  []string `json:"link_ids"`
}

type AskResponse struct {
	Answer  string       `json:"answer"`
	Sources []FlexibleID `json:"sources,omitempty"`
}
