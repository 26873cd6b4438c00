package models

import "time"

// InteractionRecord is a like, super-like or pass from one user to another.
// At most one record exists per (actor, target); a later action overwrites it.
type InteractionRecord struct {
	ID         string    `dynamodbav:"id" json:"id"`             // ✅ Partition Key: "actor_target"
	ActorID    string    `dynamodbav:"actorId" json:"actorId"`   // ✅ Used in GSI
	TargetID   string    `dynamodbav:"targetId" json:"targetId"` // ✅ Used in GSI
	Kind       string    `dynamodbav:"kind" json:"kind"`         // like, superlike, pass
	Message    *string   `dynamodbav:"message,omitempty" json:"message,omitempty"`
	ActorName  string    `dynamodbav:"actorName,omitempty" json:"actorName,omitempty"`
	ActorPhoto string    `dynamodbav:"actorPhoto,omitempty" json:"actorPhoto,omitempty"`
	ActorAge   int       `dynamodbav:"actorAge,omitempty" json:"actorAge,omitempty"`
	CreatedAt  time.Time `dynamodbav:"createdAt" json:"createdAt"`
	Matched    bool      `dynamodbav:"matched" json:"matched"`
}

// InteractionID derives the deterministic record id for an actor/target pair.
func InteractionID(actorID, targetID string) string {
	return actorID + "_" + targetID
}

// IsLike reports whether the record counts as a like (ordinary or super).
func (r *InteractionRecord) IsLike() bool {
	return r != nil && IsLikeKind(r.Kind)
}

// ✅ Define table name for interactions
const InteractionsTable = "Interactions"

// ✅ GSIs used to list interactions by actor and by target
const (
	ActorIDIndex  = "actorId-index"
	TargetIDIndex = "targetId-index"
)
