package notifier

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/internradar/internradar/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticSubscribers []store.Subscriber

func (s staticSubscribers) Subscribers(context.Context) ([]store.Subscriber, error) {
	return s, nil
}

type recordingSMSSender struct {
	sent []string
}

func (r *recordingSMSSender) SendSMS(phone, message string) error {
	r.sent = append(r.sent, phone)
	return nil
}

func TestSendDigest_HonorsPreferences(t *testing.T) {
	subs := staticSubscribers{
		{Email: "digest@example.com", DailyDigest: true},
		{Email: "alerts-only@example.com", InstantAlerts: true},
		{Email: "both@example.com", DailyDigest: true, SMSEnabled: true, Phone: "5551234567"},
	}
	email := &recordingEmailSender{}
	sms := &recordingSMSSender{}
	svc := NewService(subs, email, sms, discardLogger())

	sent, err := svc.SendDigest(context.Background(), postings(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2 digest subscribers", sent)
	}
	if len(email.sent) != 2 {
		t.Errorf("emails = %v", email.sent)
	}
	if len(sms.sent) != 1 || sms.sent[0] != "5551234567" {
		t.Errorf("sms = %v, want only the sms-enabled subscriber", sms.sent)
	}
}

func TestSendAlert_OnlyInstantSubscribers(t *testing.T) {
	subs := staticSubscribers{
		{Email: "digest@example.com", DailyDigest: true},
		{Email: "alerts@example.com", InstantAlerts: true},
	}
	email := &recordingEmailSender{}
	svc := NewService(subs, email, nil, discardLogger())

	sent, err := svc.SendAlert(context.Background(), postings(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 || len(email.sent) != 1 || email.sent[0] != "alerts@example.com" {
		t.Errorf("sent = %d, emails = %v", sent, email.sent)
	}
}

func TestSendDigest_EmptyPostings(t *testing.T) {
	svc := NewService(staticSubscribers{{Email: "a@example.com", DailyDigest: true}},
		&recordingEmailSender{}, nil, discardLogger())

	sent, err := svc.SendDigest(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0 for empty postings", sent)
	}
}

func TestSendDigest_AllDeliveriesFail(t *testing.T) {
	subs := staticSubscribers{{Email: "a@example.com", DailyDigest: true}}
	email := &recordingEmailSender{fail: map[string]bool{"a@example.com": true}}
	svc := NewService(subs, email, nil, discardLogger())

	if _, err := svc.SendDigest(context.Background(), postings(1)); err == nil {
		t.Fatal("expected error when every delivery fails")
	}
}

func TestSendDigest_PartialFailureIsNotFatal(t *testing.T) {
	subs := staticSubscribers{
		{Email: "ok@example.com", DailyDigest: true},
		{Email: "broken@example.com", DailyDigest: true},
	}
	email := &recordingEmailSender{fail: map[string]bool{"broken@example.com": true}}
	svc := NewService(subs, email, nil, discardLogger())

	sent, err := svc.SendDigest(context.Background(), postings(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
}

func TestSendSMS_CarrierRouting(t *testing.T) {
	rec := &recordingEmailSender{}
	svc := NewService(nil, rec, NewGatewaySender(rec), discardLogger())

	sub := store.Subscriber{Phone: "5551234567", Carrier: "att"}
	if err := svc.sendSMS(sub, "msg"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.sent) != 1 || rec.sent[0] != "5551234567@txt.att.net" {
		t.Errorf("sent = %v, want att gateway address", rec.sent)
	}
}
