package socket

import "chatline/pkg/models"

// Server-to-client event names. Clients subscribe to these over the live
// channel; mutations always arrive over HTTP.
const (
	EventNewMessage     = "newMessage"
	EventMessageDeleted = "messageDeleted"
	EventOnlineUsers    = "getOnlineUsers"
)

// Frame is the wire envelope for a pushed event.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// NewMessageFrame wraps a freshly persisted message.
func NewMessageFrame(m models.Message) Frame {
	return Frame{Event: EventNewMessage, Data: m}
}

// MessageDeletedFrame carries the id of a removed message.
func MessageDeletedFrame(id string) Frame {
	return Frame{Event: EventMessageDeleted, Data: id}
}

// OnlineUsersFrame carries the ids of every currently connected user.
func OnlineUsersFrame(ids []string) Frame {
	return Frame{Event: EventOnlineUsers, Data: ids}
}
