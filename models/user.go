package models

import "time"

// Tier is a membership level. The zero value means the user has not
// purchased a membership yet.
type Tier string

const (
	TierStarter Tier = "starter"
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierElite   Tier = "elite"
)

func (t Tier) Valid() bool {
	switch t {
	case TierStarter, TierBasic, TierPremium, TierElite:
		return true
	}
	return false
}

type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Birthday        string    `json:"birthday,omitempty"`
	Address         string    `json:"address,omitempty"`
	Tier            Tier      `json:"tier,omitempty"`
	MemberID        string    `json:"member_id,omitempty"`
	Points          int       `json:"points"`
	Insurance       float64   `json:"insurance"`
	EcoContribution float64   `json:"eco_contribution"`
	ValidUntil      time.Time `json:"valid_until,omitempty"`
	Wishlist        []string  `json:"wishlist,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
