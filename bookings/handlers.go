// Package bookings is the customer-facing booking surface. Reads go
// through the query client so list/detail responses carry the joined
// partner and counter-offer records the mobile UI renders.
package bookings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"subiclife/lifecycle"
	"subiclife/models"
	"subiclife/query"
	"subiclife/store"
	"subiclife/utils"

	"github.com/julienschmidt/httprouter"
)

// processingDelay simulates the GCash/card gateway round trip. Tests
// set it to zero.
var processingDelay = 300 * time.Millisecond

type Handler struct {
	st   *store.Store
	flow *lifecycle.Flow
	q    *query.Client
}

func NewHandler(st *store.Store, flow *lifecycle.Flow, q *query.Client) *Handler {
	return &Handler{st: st, flow: flow, q: q}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		UserID         string                `json:"user_id"`
		PartnerID      string                `json:"partner_id"`
		BookingType    models.BookingType    `json:"booking_type"`
		BookingDetails models.BookingDetails `json:"booking_details"`
		TotalAmount    float64               `json:"total_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.UserID == "" || body.PartnerID == "" || body.BookingType == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id, partner_id and booking_type are required")
		return
	}
	if body.TotalAmount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "total_amount must be positive")
		return
	}

	b, err := h.flow.SubmitBooking(body.UserID, body.PartnerID, body.BookingType, body.BookingDetails, body.TotalAmount)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"booking": b})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	res := h.q.From("bookings").
		Select("*, partner:partners(*), counter_offer:counter_offers(*)").
		Eq("user_id", userID).
		Order("created_at", false).
		Execute()
	if res.Error != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, res.Error.Message)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"bookings": res.Data})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res := h.q.From("bookings").
		Select("*, partner:partners(*), counter_offer:counter_offers(*)").
		Eq("id", ps.ByName("id")).
		Single()
	if res.Error != nil {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": res.Data})
}

// Timeline returns the derived lifecycle steps for the detail view.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, ok := h.st.BookingByID(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	var offer *models.CounterOffer
	if o, found := h.st.PendingCounterOfferForBooking(b.ID); found {
		offer = &o
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"steps": lifecycle.Timeline(b, offer)})
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.flow.CancelBooking(ps.ByName("id"), false)
	if err != nil {
		respondFlowErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": b})
}

// Pay simulates the payment gateway: an artificial delay, then the
// payment-complete transition.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Method string `json:"method"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Method == "" {
		body.Method = "gcash"
	}

	time.Sleep(processingDelay)

	b, err := h.flow.CompletePayment(ps.ByName("id"))
	if err != nil {
		respondFlowErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": b, "method": body.Method})
}

func (h *Handler) AcceptCounterOffer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.flow.AcceptCounterOffer(ps.ByName("id"))
	if err != nil {
		respondFlowErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": b})
}

func (h *Handler) DeclineCounterOffer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.flow.DeclineCounterOffer(ps.ByName("id"))
	if err != nil {
		respondFlowErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"booking": b})
}

func respondFlowErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
