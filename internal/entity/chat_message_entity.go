package entity

type ChatMessage struct {
	Text    string
	IsUser  bool
	Sources []string
}

func UserMessage(text string) ChatMessage {
	return ChatMessage{Text: text, IsUser: true}
}

func BotMessage(text string) ChatMessage {
	return ChatMessage{Text: text}
}
