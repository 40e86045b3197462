package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/graceworks/shelterops/internal/clock"
)

const twilioBaseURL = "https://api.twilio.com"

// SMSSender hands a text message to the SMS provider.
type SMSSender interface {
	// Send delivers body to the resident phone number given in rawPhone.
	// It returns true when the message was accepted by the provider,
	// false when sending was skipped (sender disabled, or the number
	// cannot be normalized), and an error only when the provider
	// rejected or never received the attempt.
	Send(ctx context.Context, rawPhone, body string) (bool, error)
}

// ApprovalMessage builds the text sent to a resident when staff approve a
// leave request.
func ApprovalMessage(firstName, lastName string, leaveAt, returnAt time.Time) string {
	return fmt.Sprintf("Leave approved for %s %s. Leave %s. Return %s by 10 PM.",
		firstName, lastName, clock.FormatDate(leaveAt), clock.FormatDate(returnAt))
}

// twilioAPIError is the JSON body Twilio returns on non-2xx responses.
type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// TwilioSender sends SMS through the Twilio Messages API. Constructed
// without credentials it becomes a permanent no-op.
type TwilioSender struct {
	client     *resty.Client
	accountSID string
	fromNumber string
}

// NewTwilioSender creates a TwilioSender. When any credential is empty
// the sender is disabled and every Send call reports skipped.
func NewTwilioSender(accountSID, authToken, fromNumber string) *TwilioSender {
	return newTwilioSender(twilioBaseURL, accountSID, authToken, fromNumber)
}

func newTwilioSender(baseURL, accountSID, authToken, fromNumber string) *TwilioSender {
	if accountSID == "" || authToken == "" || fromNumber == "" {
		slog.Info("sms sending disabled, provider credentials not configured")
		return &TwilioSender{}
	}

	// No automatic retries. A timed-out request may still have been
	// delivered, and a duplicate text is worse than a missed one.
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json")

	return &TwilioSender{
		client:     client,
		accountSID: accountSID,
		fromNumber: fromNumber,
	}
}

// Send delivers body to rawPhone through Twilio.
func (s *TwilioSender) Send(ctx context.Context, rawPhone, body string) (bool, error) {
	if s.client == nil {
		return false, nil
	}

	phone, ok := NormalizePhone(rawPhone)
	if !ok {
		slog.Info("sms skipped, phone number not normalizable", "phone_length", len(rawPhone))
		return false, nil
	}

	var apiErr twilioAPIError
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"To":   phone,
			"From": s.fromNumber,
			"Body": body,
		}).
		SetError(&apiErr).
		Post(fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", s.accountSID))
	if err != nil {
		return false, fmt.Errorf("failed to reach sms provider: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return false, fmt.Errorf("sms provider rejected message: %s (code %d)", apiErr.Message, apiErr.Code)
		}
		return false, fmt.Errorf("sms provider rejected message: status %d", resp.StatusCode())
	}

	slog.Info("sms sent", "to", maskPhone(phone))
	return true, nil
}

// maskPhone keeps only the last four digits for log output.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "***"
	}
	return "***" + phone[len(phone)-4:]
}

// compile-time interface check
var _ SMSSender = (*TwilioSender)(nil)
