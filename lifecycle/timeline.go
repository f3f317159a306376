package lifecycle

import "subiclife/models"

type StepState string

const (
	StepCompleted StepState = "completed"
	StepCurrent   StepState = "current"
	StepUpcoming  StepState = "upcoming"
	StepFailed    StepState = "failed"
)

// Step is one entry in a booking's rendered timeline.
type Step struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	State StepState `json:"state"`
}

// Timeline derives the ordered lifecycle steps for a booking, shared by
// the customer and merchant surfaces. It is pure and total: every
// status and payment status combination yields a non-empty sequence,
// and terminal failures end in a failed step.
func Timeline(b models.Booking, offer *models.CounterOffer) []Step {
	requested := Step{Key: "requested", Label: "Request sent", State: StepCompleted}

	switch b.Status {
	case models.StatusDeclined:
		return []Step{requested, {Key: "declined", Label: "Declined by partner", State: StepFailed}}
	case models.StatusCancelled:
		return []Step{requested, {Key: "cancelled", Label: "Cancelled", State: StepFailed}}
	case models.StatusPending, models.StatusCounterOfferSent, models.StatusConfirmed, models.StatusCompleted:
		// fall through to the linear flow below
	default:
		return []Step{requested, {Key: "unknown", Label: "Unknown status", State: StepFailed}}
	}

	steps := []Step{requested}

	countering := b.Status == models.StatusCounterOfferSent
	offerAccepted := offer != nil && offer.Status == models.OfferAccepted
	if countering || offerAccepted {
		state := StepCurrent
		if offerAccepted {
			state = StepCompleted
		}
		steps = append(steps, Step{Key: "counter_offer", Label: "Counter offer", State: state})
	}

	confirmed := b.Status == models.StatusConfirmed || b.Status == models.StatusCompleted
	paid := b.PaymentStatus == models.PaymentPaid

	confirmState := StepUpcoming
	switch {
	case confirmed:
		confirmState = StepCompleted
	case b.Status == models.StatusPending:
		confirmState = StepCurrent
	}
	steps = append(steps, Step{Key: "confirmation", Label: "Partner confirmation", State: confirmState})

	payState := StepUpcoming
	switch {
	case paid:
		payState = StepCompleted
	case b.Status == models.StatusConfirmed:
		payState = StepCurrent
	}
	steps = append(steps, Step{Key: "payment", Label: "Payment", State: payState})

	checkinState := StepUpcoming
	switch {
	case b.Status == models.StatusCompleted:
		checkinState = StepCompleted
	case b.Status == models.StatusConfirmed && paid:
		checkinState = StepCurrent
	}
	steps = append(steps, Step{Key: "check_in", Label: "Check-in", State: checkinState})

	return steps
}
