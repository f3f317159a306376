// Package store is the process-wide entity store: five in-memory
// collections plus the merchant session, guarded by one lock, persisted
// as a JSON snapshot after every mutation, and publishing every insert
// and update to the dispatcher before the mutating call returns.
//
// Mutations that span two entities (opening and resolving counter
// offers) run as single actions under the lock, so readers never see a
// booking and its offer mid-transition.
package store

import (
	"errors"
	"sync"
	"time"

	"subiclife/dispatch"
	"subiclife/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPendingOfferExists = errors.New("booking already has a pending counter offer")
	ErrInvalidState       = errors.New("entity is not in a state that allows this action")
)

const (
	TableUsers         = "users"
	TablePartners      = "partners"
	TableBookings      = "bookings"
	TableCounterOffers = "counter_offers"
	TableNotifications = "notifications"
)

type Store struct {
	mu   sync.RWMutex
	data models.Snapshot
	path string // snapshot file; empty disables persistence
	bus  *dispatch.Dispatcher
}

// New creates an empty store with no snapshot file. Used by tests and by
// Open once hydration is done.
func New(bus *dispatch.Dispatcher) *Store {
	return &Store{bus: bus}
}

// Open hydrates the store from the snapshot at path, or starts empty if
// no snapshot exists yet. Later mutations rewrite the snapshot.
func Open(path string, bus *dispatch.Dispatcher) (*Store, error) {
	s := New(bus)
	s.path = path
	snap, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		s.data = *snap
	}
	return s, nil
}

func (s *Store) publish(table string, event dispatch.Event, data any) {
	if s.bus != nil {
		s.bus.Publish(table, event, data)
	}
}

func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

// ---------- Users ----------

func (s *Store) AddUser(u models.User) models.User {
	s.mu.Lock()
	stamp(&u.ID, &u.CreatedAt)
	s.data.Users = append(s.data.Users, u)
	s.persistLocked()
	s.mu.Unlock()
	s.publish(TableUsers, dispatch.EventInsert, u)
	return u
}

// UpdateUser applies the mutation to the user with the given id. A miss
// is a no-op: ok is false and nothing is published.
func (s *Store) UpdateUser(id string, apply func(*models.User)) (models.User, bool) {
	s.mu.Lock()
	var updated models.User
	ok := false
	for i := range s.data.Users {
		if s.data.Users[i].ID == id {
			apply(&s.data.Users[i])
			updated = s.data.Users[i]
			ok = true
			break
		}
	}
	if ok {
		s.persistLocked()
	}
	s.mu.Unlock()
	if ok {
		s.publish(TableUsers, dispatch.EventUpdate, updated)
	}
	return updated, ok
}

func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.data.Users))
	copy(out, s.data.Users)
	return out
}

func (s *Store) UserByID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.data.Users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// AddPoints credits points to a user. Backs the add_points RPC.
func (s *Store) AddPoints(userID string, points int) (models.User, bool) {
	return s.UpdateUser(userID, func(u *models.User) {
		u.Points += points
	})
}

// ---------- Partners ----------

func (s *Store) AddPartner(p models.Partner) models.Partner {
	s.mu.Lock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CommissionRate == 0 {
		p.CommissionRate = 0.10
	}
	s.data.Partners = append(s.data.Partners, p)
	s.persistLocked()
	s.mu.Unlock()
	s.publish(TablePartners, dispatch.EventInsert, p)
	return p
}

func (s *Store) Partners() []models.Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Partner, len(s.data.Partners))
	copy(out, s.data.Partners)
	return out
}

func (s *Store) PartnerByID(id string) (models.Partner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.data.Partners {
		if p.ID == id {
			return p, true
		}
	}
	return models.Partner{}, false
}

// ---------- Bookings ----------

func (s *Store) AddBooking(b models.Booking) models.Booking {
	s.mu.Lock()
	stamp(&b.ID, &b.CreatedAt)
	s.data.Bookings = append(s.data.Bookings, b)
	s.persistLocked()
	s.mu.Unlock()
	s.publish(TableBookings, dispatch.EventInsert, b)
	return b
}

func (s *Store) UpdateBooking(id string, apply func(*models.Booking)) (models.Booking, bool) {
	s.mu.Lock()
	var updated models.Booking
	ok := false
	for i := range s.data.Bookings {
		if s.data.Bookings[i].ID == id {
			apply(&s.data.Bookings[i])
			updated = s.data.Bookings[i]
			ok = true
			break
		}
	}
	if ok {
		s.persistLocked()
	}
	s.mu.Unlock()
	if ok {
		s.publish(TableBookings, dispatch.EventUpdate, updated)
	}
	return updated, ok
}

func (s *Store) Bookings() []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Booking, len(s.data.Bookings))
	copy(out, s.data.Bookings)
	return out
}

func (s *Store) BookingByID(id string) (models.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.data.Bookings {
		if b.ID == id {
			return b, true
		}
	}
	return models.Booking{}, false
}

func (s *Store) BookingsForUser(userID string) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.data.Bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}

// BookingsForPartner lists a partner's bookings, optionally restricted
// to one status.
func (s *Store) BookingsForPartner(partnerID string, status models.BookingStatus) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.data.Bookings {
		if b.PartnerID != partnerID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ---------- Counter offers ----------

func (s *Store) AddCounterOffer(o models.CounterOffer) models.CounterOffer {
	s.mu.Lock()
	stamp(&o.ID, &o.CreatedAt)
	s.data.CounterOffers = append(s.data.CounterOffers, o)
	s.persistLocked()
	s.mu.Unlock()
	s.publish(TableCounterOffers, dispatch.EventInsert, o)
	return o
}

func (s *Store) UpdateCounterOffer(id string, apply func(*models.CounterOffer)) (models.CounterOffer, bool) {
	s.mu.Lock()
	var updated models.CounterOffer
	ok := false
	for i := range s.data.CounterOffers {
		if s.data.CounterOffers[i].ID == id {
			apply(&s.data.CounterOffers[i])
			updated = s.data.CounterOffers[i]
			ok = true
			break
		}
	}
	if ok {
		s.persistLocked()
	}
	s.mu.Unlock()
	if ok {
		s.publish(TableCounterOffers, dispatch.EventUpdate, updated)
	}
	return updated, ok
}

func (s *Store) CounterOffers() []models.CounterOffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CounterOffer, len(s.data.CounterOffers))
	copy(out, s.data.CounterOffers)
	return out
}

func (s *Store) CounterOfferByID(id string) (models.CounterOffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.data.CounterOffers {
		if o.ID == id {
			return o, true
		}
	}
	return models.CounterOffer{}, false
}

// PendingCounterOfferForBooking returns the booking's open offer, if any.
func (s *Store) PendingCounterOfferForBooking(bookingID string) (models.CounterOffer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pendingOfferLocked(bookingID)
}

func (s *Store) pendingOfferLocked(bookingID string) (models.CounterOffer, bool) {
	for _, o := range s.data.CounterOffers {
		if o.BookingID == bookingID && o.Status == models.OfferPending {
			return o, true
		}
	}
	return models.CounterOffer{}, false
}

// OpenCounterOffer creates the offer and moves its booking to
// counter_offer_sent in one action. Fails if the booking is missing or
// already has a pending offer.
func (s *Store) OpenCounterOffer(o models.CounterOffer) (models.CounterOffer, models.Booking, error) {
	s.mu.Lock()
	var booking *models.Booking
	for i := range s.data.Bookings {
		if s.data.Bookings[i].ID == o.BookingID {
			booking = &s.data.Bookings[i]
			break
		}
	}
	if booking == nil {
		s.mu.Unlock()
		return models.CounterOffer{}, models.Booking{}, ErrNotFound
	}
	if booking.Status != models.StatusPending {
		s.mu.Unlock()
		return models.CounterOffer{}, models.Booking{}, ErrInvalidState
	}
	if _, exists := s.pendingOfferLocked(o.BookingID); exists {
		s.mu.Unlock()
		return models.CounterOffer{}, models.Booking{}, ErrPendingOfferExists
	}

	stamp(&o.ID, &o.CreatedAt)
	o.Status = models.OfferPending
	s.data.CounterOffers = append(s.data.CounterOffers, o)
	booking.Status = models.StatusCounterOfferSent
	updatedBooking := *booking
	s.persistLocked()
	s.mu.Unlock()

	s.publish(TableCounterOffers, dispatch.EventInsert, o)
	s.publish(TableBookings, dispatch.EventUpdate, updatedBooking)
	return o, updatedBooking, nil
}

// ResolveCounterOffer sets the offer's final status and applies the
// paired booking mutation in one action. Both updates are published
// after the lock is released, offer first.
func (s *Store) ResolveCounterOffer(offerID string, status models.CounterOfferStatus, applyBooking func(*models.Booking)) (models.CounterOffer, models.Booking, error) {
	s.mu.Lock()
	var offer *models.CounterOffer
	for i := range s.data.CounterOffers {
		if s.data.CounterOffers[i].ID == offerID {
			offer = &s.data.CounterOffers[i]
			break
		}
	}
	if offer == nil {
		s.mu.Unlock()
		return models.CounterOffer{}, models.Booking{}, ErrNotFound
	}
	if offer.Status != models.OfferPending {
		s.mu.Unlock()
		return models.CounterOffer{}, models.Booking{}, ErrInvalidState
	}
	var booking *models.Booking
	for i := range s.data.Bookings {
		if s.data.Bookings[i].ID == offer.BookingID {
			booking = &s.data.Bookings[i]
			break
		}
	}
	if booking == nil {
		s.mu.Unlock()
		return models.CounterOffer{}, models.Booking{}, ErrNotFound
	}

	offer.Status = status
	applyBooking(booking)
	updatedOffer := *offer
	updatedBooking := *booking
	s.persistLocked()
	s.mu.Unlock()

	s.publish(TableCounterOffers, dispatch.EventUpdate, updatedOffer)
	s.publish(TableBookings, dispatch.EventUpdate, updatedBooking)
	return updatedOffer, updatedBooking, nil
}

// ---------- Notifications ----------

func (s *Store) AddNotification(n models.Notification) models.Notification {
	s.mu.Lock()
	stamp(&n.ID, &n.CreatedAt)
	s.data.Notifications = append(s.data.Notifications, n)
	s.persistLocked()
	s.mu.Unlock()
	s.publish(TableNotifications, dispatch.EventInsert, n)
	return n
}

func (s *Store) MarkNotificationRead(id string) (models.Notification, bool) {
	s.mu.Lock()
	var updated models.Notification
	ok := false
	for i := range s.data.Notifications {
		if s.data.Notifications[i].ID == id {
			s.data.Notifications[i].Read = true
			updated = s.data.Notifications[i]
			ok = true
			break
		}
	}
	if ok {
		s.persistLocked()
	}
	s.mu.Unlock()
	if ok {
		s.publish(TableNotifications, dispatch.EventUpdate, updated)
	}
	return updated, ok
}

func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.data.Notifications))
	copy(out, s.data.Notifications)
	return out
}

func (s *Store) NotificationsForUser(userID string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.data.Notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) NotificationsForPartner(partnerID string) []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.data.Notifications {
		if n.PartnerID == partnerID {
			out = append(out, n)
		}
	}
	return out
}

// ---------- Merchant session ----------

func (s *Store) SetMerchantSession(ms *models.MerchantSession) {
	s.mu.Lock()
	s.data.MerchantSession = ms
	s.persistLocked()
	s.mu.Unlock()
}

func (s *Store) MerchantSession() *models.MerchantSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.MerchantSession == nil {
		return nil
	}
	ms := *s.data.MerchantSession
	return &ms
}

// Snapshot returns a copy of the full entity state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := models.Snapshot{
		Users:         append([]models.User(nil), s.data.Users...),
		Partners:      append([]models.Partner(nil), s.data.Partners...),
		Bookings:      append([]models.Booking(nil), s.data.Bookings...),
		CounterOffers: append([]models.CounterOffer(nil), s.data.CounterOffers...),
		Notifications: append([]models.Notification(nil), s.data.Notifications...),
	}
	if s.data.MerchantSession != nil {
		ms := *s.data.MerchantSession
		snap.MerchantSession = &ms
	}
	return snap
}
