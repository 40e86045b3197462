package notify

import "context"

// InstrumentedSender wraps an SMSSender and reports each outcome to a
// counter: "sent", "skipped", or "failed".
type InstrumentedSender struct {
	inner  SMSSender
	record func(outcome string)
}

// NewInstrumentedSender wraps inner with outcome recording.
func NewInstrumentedSender(inner SMSSender, record func(outcome string)) *InstrumentedSender {
	if record == nil {
		record = func(string) {}
	}
	return &InstrumentedSender{inner: inner, record: record}
}

// Send delegates to the wrapped sender and records the outcome.
func (s *InstrumentedSender) Send(ctx context.Context, rawPhone, body string) (bool, error) {
	sent, err := s.inner.Send(ctx, rawPhone, body)
	switch {
	case err != nil:
		s.record("failed")
	case sent:
		s.record("sent")
	default:
		s.record("skipped")
	}
	return sent, err
}

var _ SMSSender = (*InstrumentedSender)(nil)
