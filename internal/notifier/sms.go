package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// CarrierGateways maps US carrier names to their free email-to-SMS gateway
// domains.
var CarrierGateways = map[string]string{
	"verizon":     "vtext.com",
	"att":         "txt.att.net",
	"tmobile":     "tmomail.net",
	"sprint":      "messaging.sprintpcs.com",
	"us_cellular": "email.uscc.net",
}

// SMSSender delivers one text message.
type SMSSender interface {
	SendSMS(phone, message string) error
}

var (
	_ SMSSender = (*TwilioSender)(nil)
	_ SMSSender = (*GatewaySender)(nil)
)

// TwilioSender sends SMS through the Twilio Messages REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	httpClient *http.Client
	baseURL    string
}

// NewTwilioSender returns a sender using the given Twilio credentials.
func NewTwilioSender(accountSID, authToken, fromNumber string, httpClient *http.Client) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		httpClient: httpClient,
		baseURL:    "https://api.twilio.com",
	}
}

// SendSMS posts one message to the Twilio API.
func (t *TwilioSender) SendSMS(phone, message string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID)

	form := url.Values{}
	form.Set("To", NormalizePhone(phone))
	form.Set("From", t.fromNumber)
	form.Set("Body", message)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building twilio request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to twilio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// GatewaySender sends SMS by emailing the carrier's SMS gateway. Free, but
// needs the subscriber's carrier; with no carrier it tries every gateway
// until one accepts.
type GatewaySender struct {
	email EmailSender
}

// NewGatewaySender returns a sender that routes texts through email gateways.
func NewGatewaySender(email EmailSender) *GatewaySender {
	return &GatewaySender{email: email}
}

// SendSMS delivers message to phone via email gateways.
func (g *GatewaySender) SendSMS(phone, message string) error {
	return g.SendSMSCarrier(phone, "", message)
}

// SendSMSCarrier delivers to a known carrier's gateway, or tries all gateways
// when carrier is empty or unknown.
func (g *GatewaySender) SendSMSCarrier(phone, carrier, message string) error {
	digits := digitsOnly(phone)
	if digits == "" {
		return fmt.Errorf("no digits in phone number %q", phone)
	}

	if gateway, ok := CarrierGateways[strings.ToLower(carrier)]; ok {
		return g.email.SendEmail(digits+"@"+gateway, "", message)
	}

	var lastErr error
	for _, gateway := range CarrierGateways {
		if err := g.email.SendEmail(digits+"@"+gateway, "", message); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("all carrier gateways failed for %s: %w", digits, lastErr)
}

// NormalizePhone strips formatting and ensures an E.164-style +1 prefix for
// 10-digit US numbers.
func NormalizePhone(phone string) string {
	digits := digitsOnly(phone)
	if len(digits) == 10 {
		return "+1" + digits
	}
	return "+" + digits
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
