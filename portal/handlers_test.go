package portal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subiclife/dispatch"
	"subiclife/lifecycle"
	"subiclife/middleware"
	"subiclife/models"
	"subiclife/store"

	"github.com/julienschmidt/httprouter"
)

func testRouter(t *testing.T) (*httprouter.Router, *store.Store, *lifecycle.Flow) {
	t.Helper()
	bus := dispatch.New()
	st := store.New(bus)
	flow := lifecycle.New(st)
	h := NewHandler(st, flow)

	router := httprouter.New()
	router.POST("/api/v1/portal/session", h.CreateSession)
	session := middleware.Chain(middleware.PortalSession)
	router.GET("/api/v1/portal/bookings", session(h.ListBookings))
	router.POST("/api/v1/portal/bookings/:id/accept", session(h.Accept))
	router.POST("/api/v1/portal/bookings/:id/counter", session(h.Counter))
	return router, st, flow
}

func doJSON(t *testing.T, router *httprouter.Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func openSession(t *testing.T, router *httprouter.Router, partnerID string) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/portal/session", "", map[string]any{"partner_id": partnerID})
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("session response has no token")
	}
	return resp.Token
}

func TestSessionRequired(t *testing.T) {
	router, _, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/v1/portal/bookings", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSessionUnknownPartner(t *testing.T) {
	router, _, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/portal/session", "", map[string]any{"partner_id": "nope"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestInboxAndAccept(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	p := st.AddPartner(models.Partner{Name: "Acea"})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingHotel, models.BookingDetails{CheckIn: "2025-07-01"}, 5000)

	token := openSession(t, router, p.ID)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/portal/bookings?status=pending", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inbox status = %d", rec.Code)
	}
	var inbox struct {
		Bookings []map[string]any `json:"bookings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &inbox); err != nil {
		t.Fatal(err)
	}
	if len(inbox.Bookings) != 1 {
		t.Fatalf("inbox rows = %d, want 1", len(inbox.Bookings))
	}
	if _, ok := inbox.Bookings[0]["user"]; !ok {
		t.Fatal("inbox row missing user")
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/portal/bookings/"+b.ID+"/accept", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ := st.BookingByID(b.ID)
	if got.Status != models.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", got.Status)
	}
}

func TestForeignBookingForbidden(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	mine := st.AddPartner(models.Partner{Name: "Acea"})
	other := st.AddPartner(models.Partner{Name: "Zoobic"})
	b, _ := flow.SubmitBooking(u.ID, other.ID, models.BookingActivity, models.BookingDetails{Date: "2025-07-01"}, 800)

	token := openSession(t, router, mine.ID)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/portal/bookings/"+b.ID+"/accept", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCounterFromPortal(t *testing.T) {
	router, st, flow := testRouter(t)
	u := st.AddUser(models.User{Name: "Ana"})
	p := st.AddPartner(models.Partner{Name: "Acea"})
	b, _ := flow.SubmitBooking(u.ID, p.ID, models.BookingHotel, models.BookingDetails{CheckIn: "2025-07-01"}, 12000)

	token := openSession(t, router, p.ID)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/portal/bookings/"+b.ID+"/counter", token, map[string]any{
		"proposed_amount": 10000,
		"merchant_note":   "peak season rate",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("counter status = %d, body %s", rec.Code, rec.Body.String())
	}
	got, _ := st.BookingByID(b.ID)
	if got.Status != models.StatusCounterOfferSent {
		t.Fatalf("status = %s, want counter_offer_sent", got.Status)
	}
	if _, ok := st.PendingCounterOfferForBooking(b.ID); !ok {
		t.Fatal("no pending counter offer recorded")
	}
}
