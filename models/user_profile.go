package models

import "time"

// Location is the resolved geolocation stored on a profile.
type Location struct {
	Latitude  float64 `dynamodbav:"latitude" json:"latitude"`
	Longitude float64 `dynamodbav:"longitude" json:"longitude"`
	City      string  `dynamodbav:"city,omitempty" json:"city,omitempty"`
	Country   string  `dynamodbav:"country,omitempty" json:"country,omitempty"`
}

// IsSet reports whether the location carries coordinates.
func (l *Location) IsSet() bool {
	return l != nil && (l.Latitude != 0 || l.Longitude != 0)
}

// UserProfile defines the structure for user profiles
type UserProfile struct {
	UserID                   string    `dynamodbav:"userId" json:"userId"` // ✅ Partition Key
	Name                     string    `dynamodbav:"name" json:"name"`
	Email                    string    `dynamodbav:"email,omitempty" json:"email,omitempty"`
	Age                      int       `dynamodbav:"age" json:"age"`
	Gender                   string    `dynamodbav:"gender" json:"gender"`
	LookingFor               string    `dynamodbav:"lookingFor" json:"lookingFor"` // male, female, everyone
	MinAge                   int       `dynamodbav:"minAge" json:"minAge"`
	MaxAge                   int       `dynamodbav:"maxAge" json:"maxAge"`
	Location                 *Location `dynamodbav:"location,omitempty" json:"location,omitempty"`
	Bio                      string    `dynamodbav:"bio,omitempty" json:"bio,omitempty"`
	Photos                   []string  `dynamodbav:"photos,omitempty" json:"photos,omitempty"`
	ProfilePhoto             string    `dynamodbav:"profilePhoto,omitempty" json:"profilePhoto,omitempty"`
	VoiceVibe                string    `dynamodbav:"voiceVibe,omitempty" json:"voiceVibe,omitempty"`
	IsPremium                bool      `dynamodbav:"isPremium" json:"isPremium"`
	PremiumPlan              string    `dynamodbav:"premiumPlan,omitempty" json:"premiumPlan,omitempty"` // gold, platinum
	DailyLikesRemaining      int       `dynamodbav:"dailyLikesRemaining" json:"dailyLikesRemaining"`
	DailySuperLikesRemaining int       `dynamodbav:"dailySuperLikesRemaining" json:"dailySuperLikesRemaining"`
	CountersDay              string    `dynamodbav:"countersDay" json:"countersDay"` // UTC day the counters belong to
	Verified                 bool      `dynamodbav:"verified" json:"verified"`
	FCMToken                 string    `dynamodbav:"fcmToken,omitempty" json:"-"`
	LastActive               time.Time `dynamodbav:"lastActive" json:"lastActive"`
	CreatedAt                time.Time `dynamodbav:"createdAt" json:"createdAt"`

	DistanceKm float64 `dynamodbav:"-" json:"distanceKm,omitempty"` // Computed distance (not stored in DB)
}

// UserProfilesTable is the DynamoDB table name for user profiles
const UserProfilesTable = "Users"
