package models

import "time"

// Match is the shared entity created once per mutually-liking pair.
// Participant names and photos are snapshots taken at creation time.
type Match struct {
	MatchID             string         `dynamodbav:"matchId" json:"matchId"` // ✅ Partition Key: "min_max"
	Users               []string       `dynamodbav:"users" json:"users"`
	User1ID             string         `dynamodbav:"user1Id" json:"user1Id"`
	User2ID             string         `dynamodbav:"user2Id" json:"user2Id"`
	User1Name           string         `dynamodbav:"user1Name" json:"user1Name"`
	User2Name           string         `dynamodbav:"user2Name" json:"user2Name"`
	User1Photo          string         `dynamodbav:"user1Photo" json:"user1Photo"`
	User2Photo          string         `dynamodbav:"user2Photo" json:"user2Photo"`
	CreatedAt           time.Time      `dynamodbav:"createdAt" json:"createdAt"`
	LastMessage         string         `dynamodbav:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageTime     *time.Time     `dynamodbav:"lastMessageTime,omitempty" json:"lastMessageTime,omitempty"`
	LastMessageSenderID string         `dynamodbav:"lastMessageSenderId,omitempty" json:"lastMessageSenderId,omitempty"`
	LastSortKey         string         `dynamodbav:"lastSortKey,omitempty" json:"-"` // sort key of the newest message
	UnreadCount         map[string]int `dynamodbav:"unreadCount" json:"unreadCount"`
	IsActive            bool           `dynamodbav:"isActive" json:"isActive"`
}

// MatchID derives the canonical pair id: the lower id always comes first,
// so both like directions resolve to the same match.
func MatchID(userA, userB string) string {
	if userA < userB {
		return userA + "_" + userB
	}
	return userB + "_" + userA
}

// HasParticipant reports whether userID is one of the two matched users.
func (m *Match) HasParticipant(userID string) bool {
	return m != nil && userID != "" && (m.User1ID == userID || m.User2ID == userID)
}

// OtherUserID returns the id of the participant that is not currentUserID.
func (m *Match) OtherUserID(currentUserID string) string {
	if m.User1ID == currentUserID {
		return m.User2ID
	}
	return m.User1ID
}

// OtherUserName returns the snapshot name of the other participant.
func (m *Match) OtherUserName(currentUserID string) string {
	if m.User1ID == currentUserID {
		return m.User2Name
	}
	return m.User1Name
}

// OtherUserPhoto returns the snapshot photo of the other participant.
func (m *Match) OtherUserPhoto(currentUserID string) string {
	if m.User1ID == currentUserID {
		return m.User2Photo
	}
	return m.User1Photo
}

// ActivityTime is the sort key for match lists: last message time, else creation time.
func (m *Match) ActivityTime() time.Time {
	if m.LastMessageTime != nil {
		return *m.LastMessageTime
	}
	return m.CreatedAt
}

// MatchesTable is the DynamoDB table name for user matches
const MatchesTable = "Matches"

// ✅ GSIs used to list matches per participant
const (
	User1IDIndex = "user1Id-index"
	User2IDIndex = "user2Id-index"
)
