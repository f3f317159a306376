package checkin

import (
	"encoding/json"
	"errors"
	"net/http"

	"subiclife/lifecycle"
	"subiclife/store"
	"subiclife/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type Handler struct {
	st   *store.Store
	flow *lifecycle.Flow
}

func NewHandler(st *store.Store, flow *lifecycle.Flow) *Handler {
	return &Handler{st: st, flow: flow}
}

// BookingQR renders the signed check-in QR for a confirmed booking.
func (h *Handler) BookingQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, ok := h.st.BookingByID(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	user, ok := h.st.UserByID(b.UserID)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "user not found")
		return
	}

	payload := GeneratePayload(user.ID, b.ID, utils.GenerateRandomDigitString(6))
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// MemberQR renders the membership pass QR (the display member code).
func (h *Handler) MemberQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, ok := h.st.UserByID(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "member not found")
		return
	}
	if user.MemberID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "member has no active membership")
		return
	}
	png, err := qrcode.Encode(user.MemberID, qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// CheckIn verifies a scanned payload at the portal and completes the
// booking, crediting points.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	memberID, bookingID, _, err := VerifyPayload(body.Payload)
	if err != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, err.Error())
		return
	}
	b, ok := h.st.BookingByID(bookingID)
	if !ok || b.UserID != memberID {
		utils.RespondWithError(w, http.StatusNotFound, "booking not found for this member")
		return
	}

	updated, points, err := h.flow.CheckIn(bookingID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrInvalidTransition) {
			utils.RespondWithError(w, http.StatusConflict, "booking is not ready for check-in")
			return
		}
		utils.RespondWithError(w, http.StatusNotFound, "booking not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"ok":      true,
		"booking": updated,
		"points":  points,
	})
}
