package models

// ✅ Interaction kinds (like, superlike, pass)
const (
	InteractionKindLike      = "like"
	InteractionKindSuperLike = "superlike"
	InteractionKindPass      = "pass"
)

// ✅ Message types
const (
	MessageTypeText       = "text"
	MessageTypeImage      = "image"
	MessageTypeVoice      = "voice"
	MessageTypeGIF        = "gif"
	MessageTypeIcebreaker = "icebreaker"
)

// ✅ Gender preferences
const (
	GenderMale         = "male"
	GenderFemale       = "female"
	LookingForEveryone = "everyone"
)

// DayLayout is the UTC calendar day format used for daily quota counters.
const DayLayout = "2006-01-02"

// IsValidMessageType reports whether t is one of the supported message types.
func IsValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVoice, MessageTypeGIF, MessageTypeIcebreaker:
		return true
	}
	return false
}

// IsLikeKind reports whether kind counts as a like for reciprocity checks.
func IsLikeKind(kind string) bool {
	return kind == InteractionKindLike || kind == InteractionKindSuperLike
}
