package dispatch

import (
	"testing"

	"subiclife/models"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	d := New()
	var got []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		d.Subscribe(Subscription{
			Table: "bookings",
			Event: EventAll,
			Callback: func(Change) {
				got = append(got, name)
			},
		})
	}

	d.Publish("bookings", EventInsert, models.Booking{ID: "b1"})

	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("delivered to %d subscribers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivery order %v, want %v", got, want)
		}
	}
}

func TestPublishMatchesTableAndEvent(t *testing.T) {
	d := New()
	counts := map[string]int{}
	d.Subscribe(Subscription{Table: "bookings", Event: EventInsert, Callback: func(Change) { counts["insert"]++ }})
	d.Subscribe(Subscription{Table: "bookings", Event: EventUpdate, Callback: func(Change) { counts["update"]++ }})
	d.Subscribe(Subscription{Table: "users", Event: EventAll, Callback: func(Change) { counts["users"]++ }})

	d.Publish("bookings", EventInsert, models.Booking{ID: "b1"})
	d.Publish("bookings", EventUpdate, models.Booking{ID: "b1"})

	if counts["insert"] != 1 || counts["update"] != 1 {
		t.Errorf("counts = %v, want insert/update exactly once each", counts)
	}
	if counts["users"] != 0 {
		t.Errorf("users subscriber got %d deliveries, want 0", counts["users"])
	}
}

func TestFilterMatching(t *testing.T) {
	d := New()
	var hits int
	d.Subscribe(Subscription{
		Table:    "bookings",
		Event:    EventAll,
		Filter:   "user_id=eq.u1",
		Callback: func(Change) { hits++ },
	})

	d.Publish("bookings", EventInsert, models.Booking{ID: "b1", UserID: "u1"})
	d.Publish("bookings", EventInsert, models.Booking{ID: "b2", UserID: "u2"})

	if hits != 1 {
		t.Fatalf("filtered subscriber got %d deliveries, want 1", hits)
	}
}

func TestFilterOnNumericColumn(t *testing.T) {
	d := New()
	var hits int
	d.Subscribe(Subscription{
		Table:    "users",
		Event:    EventAll,
		Filter:   "points=eq.150",
		Callback: func(Change) { hits++ },
	})

	d.Publish("users", EventUpdate, models.User{ID: "u1", Points: 150})
	d.Publish("users", EventUpdate, models.User{ID: "u1", Points: 151})

	if hits != 1 {
		t.Fatalf("numeric filter got %d deliveries, want 1", hits)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	d := New()
	var hits int
	id := d.Subscribe(Subscription{Table: "users", Event: EventAll, Callback: func(Change) { hits++ }})

	d.Publish("users", EventInsert, models.User{ID: "u1"})
	d.Unsubscribe(id)
	d.Publish("users", EventInsert, models.User{ID: "u2"})

	if hits != 1 {
		t.Fatalf("got %d deliveries after unsubscribe, want 1", hits)
	}
}

func TestPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	d := New()
	var hits int
	d.Subscribe(Subscription{Table: "users", Event: EventAll, Callback: func(Change) { panic("boom") }})
	d.Subscribe(Subscription{Table: "users", Event: EventAll, Callback: func(Change) { hits++ }})

	d.Publish("users", EventInsert, models.User{ID: "u1"})

	if hits != 1 {
		t.Fatalf("later subscriber got %d deliveries, want 1", hits)
	}
}

func TestParseFilter(t *testing.T) {
	cases := []struct {
		in       string
		col, val string
		ok       bool
	}{
		{"user_id=eq.u1", "user_id", "u1", true},
		{"id=eq.", "id", "", true},
		{"=eq.x", "", "", false},
		{"user_id=gt.5", "", "", false},
		{"garbage", "", "", false},
	}
	for _, c := range cases {
		col, val, ok := ParseFilter(c.in)
		if ok != c.ok || col != c.col || val != c.val {
			t.Errorf("ParseFilter(%q) = (%q, %q, %v), want (%q, %q, %v)", c.in, col, val, ok, c.col, c.val, c.ok)
		}
	}
}
