// Package lifecycle drives the booking state machine:
//
//	pending -> counter_offer_sent -> confirmed -> completed
//	pending -> declined
//	pending | confirmed -> cancelled
//	counter_offer_sent -> pending (counter offer declined)
//
// payment_status runs on its own axis; paying a booking that is still
// pending also confirms it. Every transition emits the notification the
// other party expects.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"subiclife/membership"
	"subiclife/models"
	"subiclife/store"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrInvalidTransition = errors.New("transition not allowed from current status")
)

// Flow executes lifecycle transitions against the store.
type Flow struct {
	st  *store.Store
	now func() time.Time
}

func New(st *store.Store) *Flow {
	return &Flow{st: st, now: func() time.Time { return time.Now().UTC() }}
}

// SubmitBooking creates a pending booking for the user, applying the
// tier discount, and notifies the partner.
func (f *Flow) SubmitBooking(userID, partnerID string, bookingType models.BookingType, details models.BookingDetails, total float64) (models.Booking, error) {
	user, ok := f.st.UserByID(userID)
	if !ok {
		return models.Booking{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	partner, ok := f.st.PartnerByID(partnerID)
	if !ok {
		return models.Booking{}, fmt.Errorf("partner %s: %w", partnerID, ErrNotFound)
	}

	discount := 0.0
	if partner.DiscountEligible {
		discount = membership.DiscountFor(user.Tier, total)
	}
	b := f.st.AddBooking(models.Booking{
		UserID:         userID,
		PartnerID:      partnerID,
		BookingType:    bookingType,
		BookingDetails: details,
		Status:         models.StatusPending,
		PaymentStatus:  models.PaymentPending,
		TotalAmount:    total,
		DiscountAmount: discount,
		FinalAmount:    total - discount,
	})
	f.st.AddNotification(models.Notification{
		PartnerID: partnerID,
		Type:      models.NotifNewBooking,
		Title:     "New booking request",
		Message:   fmt.Sprintf("%s requested a %s booking", user.Name, bookingType),
	})
	return b, nil
}

// AcceptBooking confirms a pending booking (partner action).
func (f *Flow) AcceptBooking(bookingID string) (models.Booking, error) {
	b, err := f.transition(bookingID, models.StatusConfirmed, models.StatusPending)
	if err != nil {
		return b, err
	}
	f.st.AddNotification(models.Notification{
		UserID:  b.UserID,
		Type:    models.NotifBookingConfirmed,
		Title:   "Booking confirmed",
		Message: "Your booking request was accepted",
	})
	return b, nil
}

// DeclineBooking rejects a pending booking (partner action, terminal).
func (f *Flow) DeclineBooking(bookingID string) (models.Booking, error) {
	b, err := f.transition(bookingID, models.StatusDeclined, models.StatusPending)
	if err != nil {
		return b, err
	}
	f.st.AddNotification(models.Notification{
		UserID:  b.UserID,
		Type:    models.NotifBookingDeclined,
		Title:   "Booking declined",
		Message: "The partner could not accommodate your request",
	})
	return b, nil
}

// CounterBooking opens a counter offer on a pending booking and moves it
// to counter_offer_sent (partner action).
func (f *Flow) CounterBooking(bookingID string, details models.BookingDetails, proposedAmount float64, note string) (models.CounterOffer, error) {
	b, ok := f.st.BookingByID(bookingID)
	if !ok {
		return models.CounterOffer{}, ErrNotFound
	}
	offer, _, err := f.st.OpenCounterOffer(models.CounterOffer{
		BookingID:      bookingID,
		PartnerID:      b.PartnerID,
		OfferDetails:   details,
		ProposedAmount: proposedAmount,
		MerchantNote:   note,
	})
	if err != nil {
		return models.CounterOffer{}, mapStoreErr(err)
	}
	f.st.AddNotification(models.Notification{
		UserID:  b.UserID,
		Type:    models.NotifCounterOffer,
		Title:   "Counter offer received",
		Message: "The partner proposed a change to your booking",
	})
	return offer, nil
}

// AcceptCounterOffer confirms the booking on the offer's terms (user
// action). Offer resolution and booking confirmation happen as one store
// action. A proposed amount replaces the booking total, with the tier
// discount recomputed so final = total - discount holds.
func (f *Flow) AcceptCounterOffer(offerID string) (models.Booking, error) {
	offer, ok := f.st.CounterOfferByID(offerID)
	if !ok {
		return models.Booking{}, ErrNotFound
	}
	booking, _ := f.st.BookingByID(offer.BookingID)
	user, _ := f.st.UserByID(booking.UserID)

	now := f.now()
	_, updated, err := f.st.ResolveCounterOffer(offerID, models.OfferAccepted, func(b *models.Booking) {
		b.Status = models.StatusConfirmed
		b.ConfirmedAt = &now
		if offer.ProposedAmount > 0 {
			b.TotalAmount = offer.ProposedAmount
			b.DiscountAmount = membership.DiscountFor(user.Tier, offer.ProposedAmount)
			b.FinalAmount = b.TotalAmount - b.DiscountAmount
		}
		if offer.HasDetails() {
			b.BookingDetails = offer.OfferDetails
		}
	})
	if err != nil {
		return models.Booking{}, mapStoreErr(err)
	}
	f.st.AddNotification(models.Notification{
		PartnerID: offer.PartnerID,
		Type:      models.NotifBookingConfirmed,
		Title:     "Counter offer accepted",
		Message:   "The guest accepted your counter offer",
	})
	return updated, nil
}

// DeclineCounterOffer returns the booking to pending, back into
// negotiation (user action).
func (f *Flow) DeclineCounterOffer(offerID string) (models.Booking, error) {
	offer, ok := f.st.CounterOfferByID(offerID)
	if !ok {
		return models.Booking{}, ErrNotFound
	}
	_, updated, err := f.st.ResolveCounterOffer(offerID, models.OfferDeclined, func(b *models.Booking) {
		b.Status = models.StatusPending
	})
	if err != nil {
		return models.Booking{}, mapStoreErr(err)
	}
	f.st.AddNotification(models.Notification{
		PartnerID: offer.PartnerID,
		Type:      models.NotifCounterOffer,
		Title:     "Counter offer declined",
		Message:   "The guest declined your counter offer",
	})
	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking and notifies the
// other party.
func (f *Flow) CancelBooking(bookingID string, byPartner bool) (models.Booking, error) {
	b, err := f.transition(bookingID, models.StatusCancelled, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return b, err
	}
	n := models.Notification{
		Type:  models.NotifBookingCancelled,
		Title: "Booking cancelled",
	}
	if byPartner {
		n.UserID = b.UserID
		n.Message = "The partner cancelled your booking"
	} else {
		n.PartnerID = b.PartnerID
		n.Message = "The guest cancelled their booking"
	}
	f.st.AddNotification(n)
	return b, nil
}

// CompletePayment marks the booking paid. Paying a booking the partner
// has not answered yet confirms it in the same action.
func (f *Flow) CompletePayment(bookingID string) (models.Booking, error) {
	current, ok := f.st.BookingByID(bookingID)
	if !ok {
		return models.Booking{}, ErrNotFound
	}
	if current.Status.Terminal() || current.Status == models.StatusCounterOfferSent {
		return models.Booking{}, ErrInvalidTransition
	}
	wasPending := current.Status == models.StatusPending
	now := f.now()
	updated, _ := f.st.UpdateBooking(bookingID, func(b *models.Booking) {
		b.PaymentStatus = models.PaymentPaid
		if b.Status == models.StatusPending {
			b.Status = models.StatusConfirmed
			b.ConfirmedAt = &now
		}
	})
	if wasPending {
		f.st.AddNotification(models.Notification{
			UserID:  updated.UserID,
			Type:    models.NotifBookingConfirmed,
			Title:   "Booking confirmed",
			Message: "Payment received, your booking is confirmed",
		})
	}
	return updated, nil
}

// CheckIn completes a confirmed, paid booking and credits loyalty
// points to the user. Returns the points awarded.
func (f *Flow) CheckIn(bookingID string) (models.Booking, int, error) {
	current, ok := f.st.BookingByID(bookingID)
	if !ok {
		return models.Booking{}, 0, ErrNotFound
	}
	if current.Status != models.StatusConfirmed || current.PaymentStatus != models.PaymentPaid {
		return models.Booking{}, 0, ErrInvalidTransition
	}
	updated, _ := f.st.UpdateBooking(bookingID, func(b *models.Booking) {
		b.Status = models.StatusCompleted
	})
	points := membership.PointsFor(updated.FinalAmount)
	f.st.AddPoints(updated.UserID, points)
	f.st.AddNotification(models.Notification{
		UserID:  updated.UserID,
		Type:    models.NotifPointsEarned,
		Title:   "Points earned",
		Message: fmt.Sprintf("You earned %d points at check-in", points),
	})
	f.st.AddNotification(models.Notification{
		PartnerID: updated.PartnerID,
		Type:      models.NotifCheckIn,
		Title:     "Guest checked in",
		Message:   "A guest completed their booking",
	})
	return updated, points, nil
}

func (f *Flow) transition(bookingID string, to models.BookingStatus, allowedFrom ...models.BookingStatus) (models.Booking, error) {
	current, ok := f.st.BookingByID(bookingID)
	if !ok {
		return models.Booking{}, ErrNotFound
	}
	allowed := false
	for _, from := range allowedFrom {
		if current.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.Booking{}, fmt.Errorf("%s -> %s: %w", current.Status, to, ErrInvalidTransition)
	}
	now := f.now()
	updated, _ := f.st.UpdateBooking(bookingID, func(b *models.Booking) {
		b.Status = to
		if to == models.StatusConfirmed {
			b.ConfirmedAt = &now
		}
	})
	return updated, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrInvalidState), errors.Is(err, store.ErrPendingOfferExists):
		return fmt.Errorf("%v: %w", err, ErrInvalidTransition)
	default:
		return err
	}
}
