package pubsub

// Channel carrying every message appended to the chat log.
const ChannelChatMessages = "chat:messages"

// Event types published on ChannelChatMessages.
const (
	EventMessageAppended = "message_appended"
)
