package lifecycle

import (
	"testing"

	"subiclife/models"
)

func TestTimelineIsTotal(t *testing.T) {
	statuses := []models.BookingStatus{
		models.StatusPending, models.StatusCounterOfferSent, models.StatusConfirmed,
		models.StatusCompleted, models.StatusDeclined, models.StatusCancelled,
		models.BookingStatus("bogus"),
	}
	payments := []models.PaymentStatus{models.PaymentPending, models.PaymentPaid}

	for _, s := range statuses {
		for _, p := range payments {
			steps := Timeline(models.Booking{Status: s, PaymentStatus: p}, nil)
			if len(steps) == 0 {
				t.Fatalf("Timeline(%s, %s) returned no steps", s, p)
			}
		}
	}
}

func TestTimelineTerminality(t *testing.T) {
	cases := []struct {
		name    string
		booking models.Booking
		offer   *models.CounterOffer
		last    StepState
	}{
		{"declined ends failed", models.Booking{Status: models.StatusDeclined}, nil, StepFailed},
		{"cancelled ends failed", models.Booking{Status: models.StatusCancelled}, nil, StepFailed},
		{"completed ends completed", models.Booking{Status: models.StatusCompleted, PaymentStatus: models.PaymentPaid}, nil, StepCompleted},
		{"unknown ends failed", models.Booking{Status: "mystery"}, nil, StepFailed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			steps := Timeline(c.booking, c.offer)
			if got := steps[len(steps)-1].State; got != c.last {
				t.Fatalf("last step state = %q, want %q (steps %+v)", got, c.last, steps)
			}
		})
	}
}

func TestTimelineCurrentStep(t *testing.T) {
	current := func(steps []Step) string {
		for _, s := range steps {
			if s.State == StepCurrent {
				return s.Key
			}
		}
		return ""
	}

	pending := Timeline(models.Booking{Status: models.StatusPending, PaymentStatus: models.PaymentPending}, nil)
	if got := current(pending); got != "confirmation" {
		t.Errorf("pending current step = %q, want confirmation", got)
	}

	countered := Timeline(models.Booking{Status: models.StatusCounterOfferSent, PaymentStatus: models.PaymentPending}, &models.CounterOffer{Status: models.OfferPending})
	if got := current(countered); got != "counter_offer" {
		t.Errorf("counter_offer_sent current step = %q, want counter_offer", got)
	}

	confirmedUnpaid := Timeline(models.Booking{Status: models.StatusConfirmed, PaymentStatus: models.PaymentPending}, nil)
	if got := current(confirmedUnpaid); got != "payment" {
		t.Errorf("confirmed+unpaid current step = %q, want payment", got)
	}

	confirmedPaid := Timeline(models.Booking{Status: models.StatusConfirmed, PaymentStatus: models.PaymentPaid}, nil)
	if got := current(confirmedPaid); got != "check_in" {
		t.Errorf("confirmed+paid current step = %q, want check_in", got)
	}
}

func TestTimelineAcceptedOfferShowsCompletedCounterStep(t *testing.T) {
	steps := Timeline(
		models.Booking{Status: models.StatusConfirmed, PaymentStatus: models.PaymentPending},
		&models.CounterOffer{Status: models.OfferAccepted},
	)
	found := false
	for _, s := range steps {
		if s.Key == "counter_offer" {
			found = true
			if s.State != StepCompleted {
				t.Fatalf("accepted counter step state = %q, want completed", s.State)
			}
		}
	}
	if !found {
		t.Fatal("accepted offer missing counter_offer step")
	}
}
