package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"flamematch_server/models"
	"flamematch_server/pubsub"
	"flamematch_server/storage"
)

// MaxMessageLength bounds the text body of a message, in characters.
const MaxMessageLength = 2000

const appendAttempts = 3

// ChatService owns the per-match conversation log.
type ChatService struct {
	Matches  storage.MatchStore
	Messages storage.MessageStore
	Broker   pubsub.Broker
	Metrics  *Metrics
	Clock    Clock
	// PageSize is the history length returned when no limit is given.
	PageSize int

	locks stripedLock
}

// OutgoingMessage is the body of a message being sent.
type OutgoingMessage struct {
	Text     string
	MediaURL string
	Type     string
}

// AppendMessage adds a message to the match and refreshes the match summary
// in the same store operation. Only participants may send.
func (s *ChatService) AppendMessage(ctx context.Context, sess *Session, matchID string, body OutgoingMessage) (*models.Message, error) {
	const op = "services.chat.AppendMessage"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if err := validateBody(op, &body); err != nil {
		return nil, err
	}
	// serializing per match keeps timestamps and publish order aligned
	unlock := s.locks.lock(matchID)
	defer unlock()

	match, err := participantMatch(ctx, op, s.Matches, matchID, userID)
	if err != nil {
		return nil, err
	}

	senderName := match.User1Name
	if match.User2ID == userID {
		senderName = match.User2Name
	}

	msg := models.Message{
		MatchID:    matchID,
		MessageID:  uuid.NewString(),
		SenderID:   userID,
		SenderName: senderName,
		Text:       body.Text,
		MediaURL:   body.MediaURL,
		Type:       body.Type,
	}

	var updated *models.Match
	for attempt := 1; ; attempt++ {
		msg.CreatedAt = nextMessageTime(s.Clock.now(), match)
		msg.SortKey = models.MessageSortKey(msg.CreatedAt, msg.MessageID)

		updated, err = s.Messages.AppendMessage(ctx, msg, match.OtherUserID(userID))
		if err == nil {
			break
		}
		// another instance appended a newer message; restamp after it
		if !errors.Is(err, storage.ErrConflict) || attempt == appendAttempts {
			return nil, storeErr(op, err)
		}
		log.Printf("🔁 Message %s in %s raced a newer one, retrying", msg.MessageID, matchID)
		if match, err = s.Matches.GetMatch(ctx, matchID); err != nil {
			return nil, storeErr(op, err)
		}
	}
	s.Metrics.message(msg.Type)
	log.Printf("📩 %s message %s in %s from %s", msg.Type, msg.MessageID, matchID, userID)

	if s.Broker != nil {
		if err := s.Broker.Publish(ctx, pubsub.MessagesTopic(matchID), pubsub.Event{Kind: pubsub.KindMessage, Message: &msg}); err != nil {
			log.Printf("⚠️ Failed to publish message %s: %v", msg.MessageID, err)
		}
	}
	publishMatch(ctx, s.Broker, updated)
	return &msg, nil
}

// SubscribeToMessages opens a live feed of a match's messages: the full
// history oldest first, then each new message. Unknown matches and
// non-participants fail immediately. The caller must Cancel the feed.
func (s *ChatService) SubscribeToMessages(ctx context.Context, sess *Session, matchID string) (*Feed[models.Message], error) {
	const op = "services.chat.SubscribeToMessages"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if _, err := participantMatch(ctx, op, s.Matches, matchID, userID); err != nil {
		return nil, err
	}

	sub, err := s.Broker.Subscribe(ctx, pubsub.MessagesTopic(matchID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrTransient, err)
	}
	snapshot, err := s.Messages.ListMessages(ctx, matchID, 0)
	if err != nil {
		sub.Cancel()
		return nil, storeErr(op, err)
	}

	// events already covered by the snapshot, or older than the last
	// delivered message, are skipped to keep the sequence ordered
	var last string
	if n := len(snapshot); n > 0 {
		last = models.MessageSortKey(snapshot[n-1].CreatedAt, snapshot[n-1].MessageID)
	}
	return startFeed(sess, s.Metrics, sub, snapshot, func(ev pubsub.Event) (models.Message, bool) {
		if ev.Kind != pubsub.KindMessage || ev.Message == nil || ev.Message.MatchID != matchID {
			return models.Message{}, false
		}
		key := models.MessageSortKey(ev.Message.CreatedAt, ev.Message.MessageID)
		if key <= last {
			return models.Message{}, false
		}
		last = key
		return *ev.Message, true
	}), nil
}

// ListMessages returns the newest limit messages of the match, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, sess *Session, matchID string, limit int) ([]models.Message, error) {
	const op = "services.chat.ListMessages"

	userID, err := requireSession(op, sess)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, invalidArg(op, "limit must not be negative")
	}
	if limit == 0 {
		limit = s.PageSize
	}
	if _, err := participantMatch(ctx, op, s.Matches, matchID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.Messages.ListMessages(ctx, matchID, limit)
	if err != nil {
		return nil, storeErr(op, err)
	}
	return msgs, nil
}

// MarkRead marks every message the viewer received in the match as read and
// clears the viewer's unread counter. Returns how many messages changed.
func (s *ChatService) MarkRead(ctx context.Context, sess *Session, matchID string) (int, error) {
	const op = "services.chat.MarkRead"

	userID, err := requireSession(op, sess)
	if err != nil {
		return 0, err
	}
	if _, err := participantMatch(ctx, op, s.Matches, matchID, userID); err != nil {
		return 0, err
	}

	n, err := s.Messages.MarkRead(ctx, matchID, userID, s.Clock.now())
	if err != nil {
		return 0, storeErr(op, err)
	}
	if updated, err := s.Matches.GetMatch(ctx, matchID); err == nil {
		publishMatch(ctx, s.Broker, updated)
	}
	return n, nil
}

// nextMessageTime returns now, or 1ns past the match's newest message when the
// clock has not moved beyond it. Creation times strictly increase per match.
func nextMessageTime(now time.Time, match *models.Match) time.Time {
	if match.LastMessageTime != nil && !now.After(*match.LastMessageTime) {
		return match.LastMessageTime.Add(time.Nanosecond)
	}
	return now
}

func validateBody(op string, body *OutgoingMessage) error {
	body.Text = strings.TrimSpace(body.Text)
	if body.Type == "" {
		body.Type = models.MessageTypeText
	}
	if !models.IsValidMessageType(body.Type) {
		return invalidArg(op, "unknown message type %q", body.Type)
	}
	if utf8.RuneCountInString(body.Text) > MaxMessageLength {
		return invalidArg(op, "message longer than %d characters", MaxMessageLength)
	}

	switch body.Type {
	case models.MessageTypeText, models.MessageTypeIcebreaker:
		if body.Text == "" {
			return invalidArg(op, "empty message")
		}
	default:
		if body.MediaURL == "" {
			return invalidArg(op, "%s message needs a media url", body.Type)
		}
	}
	return nil
}
