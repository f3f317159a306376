package models

// Snapshot is the full persisted state: the five entity collections plus
// the merchant session, serialized as one document. It is written after
// every mutation and read once at startup.
type Snapshot struct {
	Users           []User           `json:"users"`
	Partners        []Partner        `json:"partners"`
	Bookings        []Booking        `json:"bookings"`
	CounterOffers   []CounterOffer   `json:"counter_offers"`
	Notifications   []Notification   `json:"notifications"`
	MerchantSession *MerchantSession `json:"merchant_session,omitempty"`
}
