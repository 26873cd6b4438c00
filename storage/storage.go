// Package storage describes the persistence contracts of the matching engine.
// Implementations live in storage/dynamo (production) and storage/memory
// (local runs and tests).
package storage

//go:generate mockgen -destination=../mocks/storage_mock.go -package=mocks flamematch_server/storage Storage

import (
	"context"
	"errors"
	"time"

	"flamematch_server/models"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a conditional write lost (record already exists / changed).
	ErrConflict = errors.New("conflict")
	// ErrQuotaExhausted means the daily counter is already at zero for today.
	ErrQuotaExhausted = errors.New("quota exhausted")
)

// QuotaKind selects which daily counter ConsumeQuota operates on.
type QuotaKind string

const (
	QuotaLikes      QuotaKind = "likes"
	QuotaSuperLikes QuotaKind = "superlikes"
)

// Attribute returns the profile attribute backing the counter.
func (k QuotaKind) Attribute() string {
	if k == QuotaSuperLikes {
		return "dailySuperLikesRemaining"
	}
	return "dailyLikesRemaining"
}

// Allowance holds the values counters are reset to at the start of a new day.
type Allowance struct {
	Likes      int
	SuperLikes int
}

// ProfileUpdate lists the mutable profile fields; nil means "leave unchanged".
type ProfileUpdate struct {
	Name         *string
	Age          *int
	Gender       *string
	LookingFor   *string
	MinAge       *int
	MaxAge       *int
	Bio          *string
	Location     *models.Location
	Photos       *[]string
	// AppendPhoto atomically appends to Photos and becomes ProfilePhoto when
	// none is set. Not combinable with Photos.
	AppendPhoto  *string
	ProfilePhoto *string
	VoiceVibe    *string
	IsPremium    *bool
	PremiumPlan  *string
	Verified     *bool
	FCMToken     *string
	LastActive   *time.Time
}

// ProfileStore persists user profiles and their daily counters.
type ProfileStore interface {
	// CreateProfile inserts a new profile; ErrConflict if the id is taken.
	CreateProfile(ctx context.Context, profile models.UserProfile) error
	// GetProfile returns ErrNotFound for unknown ids.
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	// ListProfiles returns up to limit profiles in store order.
	ListProfiles(ctx context.Context, limit int) ([]models.UserProfile, error)
	// UpdateProfile applies the non-nil fields and returns the updated profile.
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.UserProfile, error)
	// ConsumeQuota atomically decrements a daily counter, rolling both counters
	// over to allowance first when the stored day is older than day.
	// Returns the remaining count or ErrQuotaExhausted.
	ConsumeQuota(ctx context.Context, userID string, kind QuotaKind, day string, allowance Allowance) (int, error)
	// RefundQuota gives one unit back if the counters still belong to day.
	RefundQuota(ctx context.Context, userID string, kind QuotaKind, day string) error
}

// InteractionStore persists like/pass records keyed by actor_target.
type InteractionStore interface {
	// PutInteraction writes the record, overwriting any earlier one for the pair.
	PutInteraction(ctx context.Context, record models.InteractionRecord) error
	// GetInteraction returns ErrNotFound when the actor never acted on target.
	GetInteraction(ctx context.Context, actorID, targetID string) (*models.InteractionRecord, error)
	// ListByActor returns every record written by actorID.
	ListByActor(ctx context.Context, actorID string) ([]models.InteractionRecord, error)
	// ListByTarget returns records targeting targetID, newest first.
	ListByTarget(ctx context.Context, targetID string) ([]models.InteractionRecord, error)
	// MarkMatched sets matched=true on the record; ErrNotFound if absent.
	MarkMatched(ctx context.Context, actorID, targetID string) error
}

// MatchStore persists matches keyed by canonical pair id.
type MatchStore interface {
	// CreateMatchIfAbsent writes match only if no record with its id exists.
	// It returns the stored match and whether this call created it.
	CreateMatchIfAbsent(ctx context.Context, match models.Match) (*models.Match, bool, error)
	// GetMatch returns ErrNotFound for unknown ids.
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	// ListMatchesForUser returns every match userID participates in.
	ListMatchesForUser(ctx context.Context, userID string) ([]models.Match, error)
}

// MessageStore persists the per-match conversation log.
type MessageStore interface {
	// AppendMessage stores msg and, in the same atomic step, updates the parent
	// match summary and bumps recipientID's unread counter. ErrNotFound if the
	// match does not exist; ErrConflict if msg does not sort after the match's
	// newest message.
	AppendMessage(ctx context.Context, msg models.Message, recipientID string) (*models.Match, error)
	// ListMessages returns messages oldest first; the newest limit when limit > 0.
	ListMessages(ctx context.Context, matchID string, limit int) ([]models.Message, error)
	// MarkRead flags messages not sent by readerID as read and zeroes the
	// reader's unread counter. Returns how many messages changed.
	MarkRead(ctx context.Context, matchID, readerID string, at time.Time) (int, error)
}

// Storage bundles every store; both implementations satisfy it.
type Storage interface {
	ProfileStore
	InteractionStore
	MatchStore
	MessageStore
	Close() error
}
