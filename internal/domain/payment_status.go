package domain

type PaymentStatus string

const (
	PaymentStatusIdle           PaymentStatus = "idle"
	PaymentStatusCreating       PaymentStatus = "creating"
	PaymentStatusAwaitingWidget PaymentStatus = "awaiting_widget"
	PaymentStatusVerifying      PaymentStatus = "verifying"
	PaymentStatusSucceeded      PaymentStatus = "succeeded"
	PaymentStatusFailed         PaymentStatus = "failed"
)

// transitions lists every edge of the checkout state machine. There is no
// edge from awaiting_widget to succeeded: only verification leads there.
var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusIdle:           {PaymentStatusCreating},
	PaymentStatusCreating:       {PaymentStatusAwaitingWidget, PaymentStatusFailed},
	PaymentStatusAwaitingWidget: {PaymentStatusVerifying, PaymentStatusFailed, PaymentStatusIdle},
	PaymentStatusVerifying:      {PaymentStatusSucceeded, PaymentStatusFailed},
	PaymentStatusSucceeded:      {PaymentStatusIdle},
	PaymentStatusFailed:         {PaymentStatusIdle},
}

func CanTransitionTo(from, to PaymentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusFailed
}

// IsInFlight reports whether a network call is running for the attempt.
func (s PaymentStatus) IsInFlight() bool {
	return s == PaymentStatusCreating || s == PaymentStatusVerifying
}

// String representation (for logging)
func (s PaymentStatus) String() string {
	return string(s)
}
