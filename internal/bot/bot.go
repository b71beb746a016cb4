package bot

// NewTelegram starts nothing until Start is called. A non-zero ownerChatID
// restricts the bot to that chat.
func NewTelegram(token string, pipeline Pipeline, ownerChatID int64) (Bot, error) {
	return newTelegram(token, pipeline, ownerChatID)
}

func NewDiscord(token string, pipeline Pipeline) (Bot, error) {
	return newDiscord(token, pipeline)
}
