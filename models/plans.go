package models

// ✅ Premium plan ids
const (
	PlanNone     = ""
	PlanGold     = "gold"
	PlanPlatinum = "platinum"
)

// SubscriptionPlan describes a premium tier offered to users.
type SubscriptionPlan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Period   string   `json:"period"`
	Features []string `json:"features"`
}

// PremiumPlans is the catalogue returned to clients.
var PremiumPlans = map[string]SubscriptionPlan{
	PlanGold: {
		ID:       PlanGold,
		Name:     "Gold",
		Price:    14.99,
		Currency: "EUR",
		Period:   "month",
		Features: []string{
			"Unlimited Likes",
			"See Who Likes You",
			"5 Super Likes per day",
			"1 Boost per month",
			"Rewind last swipe",
			"No ads",
		},
	},
	PlanPlatinum: {
		ID:       PlanPlatinum,
		Name:     "Platinum",
		Price:    24.99,
		Currency: "EUR",
		Period:   "month",
		Features: []string{
			"All Gold features",
			"Unlimited Super Likes",
			"3 Boosts per month",
			"Priority Likes",
			"Message before matching",
			"See who's online",
			"Advanced filters",
			"Video Date feature",
		},
	},
}

// IsValidPlan reports whether plan is a known plan id (or none).
func IsValidPlan(plan string) bool {
	_, ok := PremiumPlans[plan]
	return ok || plan == PlanNone
}
