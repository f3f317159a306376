package models

import "time"

type NotificationType string

const (
	NotifNewBooking       NotificationType = "new_booking"
	NotifBookingConfirmed NotificationType = "booking_confirmed"
	NotifCounterOffer     NotificationType = "counter_offer"
	NotifBookingDeclined  NotificationType = "booking_declined"
	NotifBookingCancelled NotificationType = "booking_cancelled"
	NotifCheckIn          NotificationType = "check_in"
	NotifPointsEarned     NotificationType = "points_earned"
	NotifTierUpgraded     NotificationType = "tier_upgraded"
)

// Notification is surfaced to either a user (UserID set) or a partner
// (PartnerID set), never both. Only the Read flag mutates after creation.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id,omitempty"`
	PartnerID string           `json:"partner_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// MerchantSession marks an active portal login for a partner.
type MerchantSession struct {
	PartnerID string    `json:"partner_id"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
}
