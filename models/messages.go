package models

import (
	"fmt"
	"time"
)

// Message is one entry in a match's conversation log. Only the read-state
// fields change after creation.
type Message struct {
	MatchID    string     `dynamodbav:"matchId" json:"matchId"` // ✅ Partition Key
	SortKey    string     `dynamodbav:"sortKey" json:"-"`       // ✅ Sort Key: createdAt#messageId
	MessageID  string     `dynamodbav:"messageId" json:"messageId"`
	SenderID   string     `dynamodbav:"senderId" json:"senderId"`
	SenderName string     `dynamodbav:"senderName" json:"senderName"`
	Text       string     `dynamodbav:"text,omitempty" json:"text,omitempty"`
	MediaURL   string     `dynamodbav:"mediaUrl,omitempty" json:"mediaUrl,omitempty"`
	Type       string     `dynamodbav:"type" json:"type"` // text, image, voice, gif, icebreaker
	CreatedAt  time.Time  `dynamodbav:"createdAt" json:"createdAt"`
	ReadAt     *time.Time `dynamodbav:"readAt,omitempty" json:"readAt,omitempty"`
	IsRead     bool       `dynamodbav:"isRead" json:"isRead"`
}

// MessageSortKey builds the storage ordering key. The fixed-width UTC
// timestamp keeps lexical order equal to creation order.
func MessageSortKey(createdAt time.Time, messageID string) string {
	return fmt.Sprintf("%s#%s", createdAt.UTC().Format("2006-01-02T15:04:05.000000000Z"), messageID)
}

// Summary is the short text stored as the match's last message.
func (m *Message) Summary() string {
	if m.Text != "" {
		return m.Text
	}
	switch m.Type {
	case MessageTypeImage:
		return "📷 Photo"
	case MessageTypeVoice:
		return "🎤 Voice message"
	case MessageTypeGIF:
		return "GIF"
	case MessageTypeIcebreaker:
		return "🎲 Icebreaker"
	}
	return ""
}

// MessagesTable is the DynamoDB table name for match messages
const MessagesTable = "Messages"
