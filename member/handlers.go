// Package member is the customer-facing membership surface:
// registration, tier purchase and upgrade, wishlist, notifications.
package member

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"subiclife/membership"
	"subiclife/models"
	"subiclife/store"
	"subiclife/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	st *store.Store
}

func NewHandler(st *store.Store) *Handler {
	return &Handler{st: st}
}

// Register creates a membership record. The tier is optional: a user
// may register first and purchase a tier later.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Birthday string `json:"birthday"`
		Address  string `json:"address"`
		Tier     string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.Name == "" || body.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	u := models.User{
		Name:     body.Name,
		Email:    body.Email,
		Phone:    body.Phone,
		Birthday: body.Birthday,
		Address:  body.Address,
	}
	if body.Tier != "" {
		tier := models.Tier(utils.NormalizeTier(body.Tier))
		benefits, ok := membership.TierBenefits(tier)
		if !ok {
			utils.RespondWithError(w, http.StatusBadRequest, "unknown tier")
			return
		}
		now := time.Now().UTC()
		u.Tier = tier
		u.MemberID = membership.MemberID(tier, now)
		u.Insurance = benefits.Insurance
		u.EcoContribution = benefits.Eco
		u.ValidUntil = membership.ValidityFor(now)
	}

	created := h.st.AddUser(u)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"user": created})
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	u, ok := h.st.UserByID(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "member not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": u})
}

// PurchaseTier buys or upgrades a membership tier, recomputing the
// member id, insurance coverage, eco contribution, and validity.
func (h *Handler) PurchaseTier(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Tier string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	tier := models.Tier(utils.NormalizeTier(body.Tier))
	benefits, ok := membership.TierBenefits(tier)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "unknown tier")
		return
	}

	now := time.Now().UTC()
	updated, found := h.st.UpdateUser(ps.ByName("id"), func(u *models.User) {
		u.Tier = tier
		u.MemberID = membership.MemberID(tier, now)
		u.Insurance = benefits.Insurance
		u.EcoContribution = benefits.Eco
		u.ValidUntil = membership.ValidityFor(now)
	})
	if !found {
		utils.RespondWithError(w, http.StatusNotFound, "member not found")
		return
	}
	h.st.AddNotification(models.Notification{
		UserID:  updated.ID,
		Type:    models.NotifTierUpgraded,
		Title:   "Membership updated",
		Message: fmt.Sprintf("Welcome to the %s tier", tier),
	})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": updated})
}

// ToggleWishlist adds or removes an offer from the user's wishlist.
func (h *Handler) ToggleWishlist(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	offerID := ps.ByName("offerId")
	updated, found := h.st.UpdateUser(ps.ByName("id"), func(u *models.User) {
		for i, id := range u.Wishlist {
			if id == offerID {
				u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
				return
			}
		}
		u.Wishlist = append(u.Wishlist, offerID)
	})
	if !found {
		utils.RespondWithError(w, http.StatusNotFound, "member not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"wishlist": updated.Wishlist})
}

func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"notifications": h.st.NotificationsForUser(userID)})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	n, ok := h.st.MarkNotificationRead(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "notification not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"notification": n})
}

// ListPartners is the browse surface, optionally filtered by category.
func (h *Handler) ListPartners(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	category := r.URL.Query().Get("category")
	partners := h.st.Partners()
	if category != "" {
		filtered := partners[:0]
		for _, p := range partners {
			if string(p.Category) == category {
				filtered = append(filtered, p)
			}
		}
		partners = filtered
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"partners": partners})
}

func (h *Handler) GetPartner(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, ok := h.st.PartnerByID(ps.ByName("id"))
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "partner not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"partner": p})
}

// Tiers lists the membership tier table for the pricing page.
func (h *Handler) Tiers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	out := make([]utils.M, 0, 4)
	for _, t := range []models.Tier{models.TierStarter, models.TierBasic, models.TierPremium, models.TierElite} {
		b, _ := membership.TierBenefits(t)
		out = append(out, utils.M{
			"tier":             t,
			"discount":         b.Discount,
			"insurance":        b.Insurance,
			"eco_contribution": b.Eco,
			"price":            b.Price,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tiers": out})
}
