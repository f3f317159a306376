// Package portal is the merchant surface: session issue, booking
// request inbox, and the accept/decline/counter actions.
package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"subiclife/lifecycle"
	"subiclife/middleware"
	"subiclife/models"
	"subiclife/store"
	"subiclife/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	st   *store.Store
	flow *lifecycle.Flow
}

func NewHandler(st *store.Store, flow *lifecycle.Flow) *Handler {
	return &Handler{st: st, flow: flow}
}

// CreateSession issues a portal session token for a partner. There are
// no merchant credentials in this system; the session is a marker, not
// authentication.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		PartnerID string `json:"partner_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	partner, ok := h.st.PartnerByID(body.PartnerID)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "partner not found")
		return
	}

	now := time.Now().UTC()
	token, err := middleware.IssuePortalToken(partner.ID, now)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	h.st.SetMerchantSession(&models.MerchantSession{PartnerID: partner.ID, Token: token, IssuedAt: now})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"token": token, "partner": partner})
}

// ListBookings is the request inbox, optionally filtered by status.
// Rows carry the guest and any open counter offer.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	partnerID, err := middleware.PartnerIDFromContext(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}
	status := models.BookingStatus(r.URL.Query().Get("status"))

	rows := []utils.M{}
	for _, b := range h.st.BookingsForPartner(partnerID, status) {
		row := utils.M{"booking": b}
		if u, ok := h.st.UserByID(b.UserID); ok {
			row["user"] = u
		}
		if o, ok := h.st.PendingCounterOfferForBooking(b.ID); ok {
			row["counter_offer"] = o
		}
		rows = append(rows, row)
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": rows})
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.ownBooking(r, ps.ByName("id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	updated, err := h.flow.AcceptBooking(b.ID)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": updated})
}

func (h *Handler) Decline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.ownBooking(r, ps.ByName("id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	updated, err := h.flow.DeclineBooking(b.ID)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": updated})
}

// Counter opens a counter offer on a pending booking.
func (h *Handler) Counter(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.ownBooking(r, ps.ByName("id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		OfferDetails   models.BookingDetails `json:"offer_details"`
		ProposedAmount float64               `json:"proposed_amount"`
		MerchantNote   string                `json:"merchant_note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	offer, err := h.flow.CounterBooking(b.ID, body.OfferDetails, body.ProposedAmount, body.MerchantNote)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"counter_offer": offer})
}

// Cancel lets a partner cancel a booking they have already confirmed.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.ownBooking(r, ps.ByName("id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	updated, err := h.flow.CancelBooking(b.ID, true)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": updated})
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	partnerID, err := middleware.PartnerIDFromContext(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"notifications": h.st.NotificationsForPartner(partnerID)})
}

var errForbidden = errors.New("booking belongs to another partner")

func (h *Handler) ownBooking(r *http.Request, bookingID string) (models.Booking, error) {
	partnerID, err := middleware.PartnerIDFromContext(r.Context())
	if err != nil {
		return models.Booking{}, err
	}
	b, ok := h.st.BookingByID(bookingID)
	if !ok {
		return models.Booking{}, lifecycle.ErrNotFound
	}
	if b.PartnerID != partnerID {
		return models.Booking{}, errForbidden
	}
	return b, nil
}

func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errForbidden):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	default:
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
	}
}
