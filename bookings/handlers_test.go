package bookings

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subiclife/dispatch"
	"subiclife/lifecycle"
	"subiclife/models"
	"subiclife/query"
	"subiclife/store"

	"github.com/julienschmidt/httprouter"
)

func testRouter(t *testing.T) (*httprouter.Router, *store.Store, *lifecycle.Flow) {
	t.Helper()
	processingDelay = 0

	bus := dispatch.New()
	st := store.New(bus)
	flow := lifecycle.New(st)
	h := NewHandler(st, flow, query.NewClient(st, bus))

	router := httprouter.New()
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.List)
	router.GET("/api/v1/bookings/:id", h.Get)
	router.GET("/api/v1/bookings/:id/timeline", h.Timeline)
	router.POST("/api/v1/bookings/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/:id/pay", h.Pay)
	router.POST("/api/v1/counter-offers/:id/accept", h.AcceptCounterOffer)
	return router, st, flow
}

func doJSON(t *testing.T, router *httprouter.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingEndpoint(t *testing.T) {
	router, st, _ := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana", Tier: models.TierElite})
	p := st.AddPartner(models.Partner{Name: "Acea", DiscountEligible: true})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings", map[string]any{
		"user_id":      u.ID,
		"partner_id":   p.ID,
		"booking_type": "hotel",
		"booking_details": map[string]any{
			"check_in": "2025-07-01", "check_out": "2025-07-03", "room_type": "deluxe", "guests": 2,
		},
		"total_amount": 15000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Booking models.Booking `json:"booking"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Booking.FinalAmount != 11250 {
		t.Fatalf("final amount = %v, want 11250", resp.Booking.FinalAmount)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	router, _, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings", map[string]any{
		"user_id": "u1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListBookingsCarriesJoins(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	p := st.AddPartner(models.Partner{Name: "Acea"})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingHotel, models.BookingDetails{CheckIn: "2025-07-01"}, 1000)
	flow.CounterBooking(b.ID, models.BookingDetails{}, 900, "smaller room")

	rec := doJSON(t, router, http.MethodGet, "/api/v1/bookings?user_id="+u.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"partner"`) || !strings.Contains(body, `"counter_offer"`) {
		t.Fatalf("list response missing joins: %s", body)
	}
}

func TestPayConfirmsPendingBooking(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	p := st.AddPartner(models.Partner{Name: "Acea"})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingRestaurant, models.BookingDetails{Date: "2025-07-01", Time: "19:00", PartySize: 2}, 2000)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+b.ID+"/pay", map[string]any{"method": "gcash"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ := st.BookingByID(b.ID)
	if got.PaymentStatus != models.PaymentPaid || got.Status != models.StatusConfirmed {
		t.Fatalf("after pay: %s/%s", got.Status, got.PaymentStatus)
	}
}

func TestCancelTwiceConflicts(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	p := st.AddPartner(models.Partner{Name: "Acea"})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingActivity, models.BookingDetails{Date: "2025-07-01", Participants: 4}, 500)

	if rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+b.ID+"/cancel", nil); rec.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d", rec.Code)
	}
	if rec := doJSON(t, router, http.MethodPost, "/api/v1/bookings/"+b.ID+"/cancel", nil); rec.Code != http.StatusConflict {
		t.Fatalf("second cancel status = %d, want 409", rec.Code)
	}
}

func TestTimelineEndpoint(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	p := st.AddPartner(models.Partner{Name: "Acea"})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingYacht, models.BookingDetails{Date: "2025-07-01", DurationHours: 4, Passengers: 6}, 20000)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/bookings/"+b.ID+"/timeline", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Steps []lifecycle.Step `json:"steps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Steps) == 0 {
		t.Fatal("timeline endpoint returned no steps")
	}
}

func TestAcceptCounterOfferEndpoint(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana", Tier: models.TierBasic})
	p := st.AddPartner(models.Partner{Name: "Acea", DiscountEligible: true})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingHotel, models.BookingDetails{CheckIn: "2025-07-01"}, 10000)
	offer, _ := flow.CounterBooking(b.ID, models.BookingDetails{}, 9000, "")

	rec := doJSON(t, router, http.MethodPost, "/api/v1/counter-offers/"+offer.ID+"/accept", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ := st.BookingByID(b.ID)
	if got.Status != models.StatusConfirmed || got.TotalAmount != 9000 {
		t.Fatalf("after accept: status %s total %v", got.Status, got.TotalAmount)
	}
}
