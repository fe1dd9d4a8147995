package constant

import "time"

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"

	// Bot-style messages appended to the transcript.
	ChatErrorSubmitQuestion = "An error occurred while submitting question"
	ChatSourcePrefix        = "Source: "
	ChatEnterQuestion       = "Please enter your question"

	DefaultTranscriptCap  = 50
	DefaultCacheTTL       = 24 * time.Hour
	DefaultCacheKey       = "docchat:state"
	DefaultRequestTimeout = 60 * time.Second
)

// DefaultGroupNames seeds a first run, and LoadSessions creates them remotely
// when the backend has none.
var DefaultGroupNames = []string{
	"Compliance",
	"Hardware Management",
	"Operations",
	"Risk",
	"Software Development",
	"Vendor Management",
}

// AllowedFileTypes is the upload allow-list, lower-case, no dot.
var AllowedFileTypes = map[string]bool{
	"pdf":  true,
	"docx": true,
	"doc":  true,
	"xlsx": true,
}
