package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TypeMessage        = "message"
	TypePrivateMessage = "private_message"
	TypeStatus         = "status"
)

const (
	// BroadcastTarget is the sentinel "to" value meaning the whole room.
	BroadcastTarget = "Todos"

	JoinedText = "entra na sala..."
	LeftText   = "sai da sala..."

	// TimeLayout is the display format of Message.Time (HH:mm:ss).
	TimeLayout = "15:04:05"
)

// Message represents a chat event document in MongoDB. User-authored
// messages carry type "message" or "private_message"; join/leave
// announcements generated by the server carry type "status".
type Message struct {
	ID   primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	From string             `json:"from" bson:"from"`
	To   string             `json:"to" bson:"to"`
	Text string             `json:"text" bson:"text"`
	Type string             `json:"type" bson:"type"`
	Time string             `json:"time" bson:"time"`
}

// VisibleTo reports whether caller may read the message. A message is
// visible when it is broadcast, sent by the caller, addressed to the
// caller, or typed "message". The last clause makes plain messages
// room-wide even when "to" names a single participant; type dominates
// the targeted fields for visibility.
func (m Message) VisibleTo(caller string) bool {
	return m.To == BroadcastTarget || m.From == caller || m.To == caller || m.Type == TypeMessage
}

// FormatTime renders a timestamp the way messages display it.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
