package models

// PartnerCategory groups merchants on the browse surface.
type PartnerCategory string

const (
	CategoryHotels     PartnerCategory = "hotels"
	CategoryActivities PartnerCategory = "activities"
	CategoryDining     PartnerCategory = "dining"
	CategoryWaterSport PartnerCategory = "water-sports"
	CategoryServices   PartnerCategory = "services"
)

// Partner is a merchant/venue. Effectively read-only reference data at
// runtime, loaded from the seed catalog.
type Partner struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Category         PartnerCategory `json:"category"`
	Logo             string          `json:"logo,omitempty"`
	DiscountEligible bool            `json:"discount_eligible"`
	CommissionRate   float64         `json:"commission_rate"`
}
