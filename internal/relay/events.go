package relay

// Server-to-client event names. These are the wire contract and must not be
// renamed; connected clients dispatch on them.
const (
	EventReceiveMessage              = "ReceiveMessage"
	EventReceivePrivateMessage       = "ReceivePrivateMessage"
	EventGroupCreated                = "GroupCreated"
	EventOnlineUsers                 = "OnlineUsers"
	EventUserDisconnected            = "UserDisconnected"
	EventNewConversationNotification = "NewConversationNotification"
	EventNewGroupMessageNotification = "NewGroupMessageNotification"
)

// SystemSender marks relay-originated notices delivered through the regular
// message events.
const SystemSender = "System"

// ChatPayload carries a chat or private message.
type ChatPayload struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// GroupInfo describes a newly created group to its invited participants.
type GroupInfo struct {
	DisplayName  string   `json:"display_name"`
	Participants []string `json:"participants"`
}
