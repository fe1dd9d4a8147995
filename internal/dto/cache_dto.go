package dto

// CacheBlob is the single keyed value the cache layer persists:
// {"data": {"groups": [...], "chats": {...}}, "timestamp": "<ISO-8601>"}.
type CacheBlob struct {
	Data      *CacheData `json:"data"`
	Timestamp string     `json:"timestamp"`
}

type CacheData struct {
	Groups []CacheGroup              `json:"groups"`
	Chats  map[string][]CacheMessage `json:"chats"`
}

type CacheGroup struct {
	Id    string      `json:"id"`
	Name  string      `json:"name"`
	Files []CacheFile `json:"files"`
	Links []CacheLink `json:"links"`
}

type CacheFile struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Path string `json:"path"`
}

type CacheLink struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Url  string `json:"url"`
}

type CacheMessage struct {
	Text    string   `json:"text"`
	IsUser  bool     `json:"isUser"`
	Sources []string `json:"sources,omitempty"`
}
