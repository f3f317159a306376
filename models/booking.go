package models

import "time"

type BookingStatus string

const (
	StatusPending          BookingStatus = "pending"
	StatusCounterOfferSent BookingStatus = "counter_offer_sent"
	StatusConfirmed        BookingStatus = "confirmed"
	StatusDeclined         BookingStatus = "declined"
	StatusCancelled        BookingStatus = "cancelled"
	StatusCompleted        BookingStatus = "completed"
)

// Terminal reports whether no further status transition is possible.
func (s BookingStatus) Terminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type BookingType string

const (
	BookingHotel      BookingType = "hotel"
	BookingRestaurant BookingType = "restaurant"
	BookingYacht      BookingType = "yacht"
	BookingActivity   BookingType = "activity"
	BookingService    BookingType = "service"
)

// BookingDetails is the variant payload keyed by BookingType. Only the
// fields relevant to the booking's type are set; the rest stay zero and
// are omitted from JSON.
type BookingDetails struct {
	// hotel
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
	RoomType string `json:"room_type,omitempty"`
	Guests   int    `json:"guests,omitempty"`
	// restaurant
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	PartySize int    `json:"party_size,omitempty"`
	// yacht
	DurationHours int `json:"duration_hours,omitempty"`
	Passengers    int `json:"passengers,omitempty"`
	// activity / service
	Participants int    `json:"participants,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type Booking struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	PartnerID      string         `json:"partner_id"`
	BookingType    BookingType    `json:"booking_type"`
	BookingDetails BookingDetails `json:"booking_details"`
	Status         BookingStatus  `json:"status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	TotalAmount    float64        `json:"total_amount"`
	DiscountAmount float64        `json:"discount_amount"`
	FinalAmount    float64        `json:"final_amount"`
	CreatedAt      time.Time      `json:"created_at"`
	ConfirmedAt    *time.Time     `json:"confirmed_at,omitempty"`
}

type CounterOfferStatus string

const (
	OfferPending  CounterOfferStatus = "pending"
	OfferAccepted CounterOfferStatus = "accepted"
	OfferDeclined CounterOfferStatus = "declined"
)

// CounterOffer is a partner's proposed modification to a pending booking.
// At most one pending offer exists per booking at any time.
type CounterOffer struct {
	ID             string             `json:"id"`
	BookingID      string             `json:"booking_id"`
	PartnerID      string             `json:"partner_id"`
	OfferDetails   BookingDetails     `json:"offer_details"`
	ProposedAmount float64            `json:"proposed_amount,omitempty"`
	MerchantNote   string             `json:"merchant_note,omitempty"`
	Status         CounterOfferStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// HasDetails reports whether the offer carries revised booking details,
// as opposed to a price-only proposal.
func (o CounterOffer) HasDetails() bool {
	return o.OfferDetails != (BookingDetails{})
}
