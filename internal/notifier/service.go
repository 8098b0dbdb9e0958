package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/internradar/internradar/internal/model"
	"github.com/internradar/internradar/internal/store"
)

// SubscriberLister provides the current subscriber set.
type SubscriberLister interface {
	Subscribers(ctx context.Context) ([]store.Subscriber, error)
}

// Service fans digests and alerts out to subscribers, honoring each
// subscriber's channel preferences.
type Service struct {
	subs   SubscriberLister
	email  EmailSender
	sms    SMSSender
	logger *slog.Logger
}

// NewService returns a notification service. sms may be nil when no SMS
// channel is configured; SMS-enabled subscribers are then skipped.
func NewService(subs SubscriberLister, email EmailSender, sms SMSSender, logger *slog.Logger) *Service {
	return &Service{subs: subs, email: email, sms: sms, logger: logger}
}

// SendDigest emails the daily digest to every subscriber with daily_digest
// set, texting those who also enabled SMS. Returns the number of subscribers
// reached. Individual delivery failures are logged, not fatal; an error is
// returned only when no subscriber could be reached.
func (s *Service) SendDigest(ctx context.Context, postings []model.Posting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}
	return s.fanOut(ctx, func(sub store.Subscriber) bool { return sub.DailyDigest },
		DigestSubject, DigestHTML(postings), DigestSMS(postings))
}

// SendAlert notifies subscribers who opted into instant alerts about freshly
// discovered postings.
func (s *Service) SendAlert(ctx context.Context, postings []model.Posting) (int, error) {
	if len(postings) == 0 {
		return 0, nil
	}
	return s.fanOut(ctx, func(sub store.Subscriber) bool { return sub.InstantAlerts },
		AlertSubject, AlertHTML(postings), AlertSMS(postings))
}

func (s *Service) fanOut(ctx context.Context, wants func(store.Subscriber) bool, subject, htmlBody, smsBody string) (int, error) {
	subscribers, err := s.subs.Subscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing subscribers: %w", err)
	}

	sent := 0
	eligible := 0
	for _, sub := range subscribers {
		if !wants(sub) {
			continue
		}
		eligible++

		if err := s.email.SendEmail(sub.Email, subject, htmlBody); err != nil {
			s.logger.Error("email delivery failed", "to", sub.Email, "error", err)
			continue
		}

		if sub.SMSEnabled && sub.Phone != "" {
			if err := s.sendSMS(sub, smsBody); err != nil {
				// Email went through, count the subscriber as reached.
				s.logger.Error("sms delivery failed", "to", sub.Phone, "error", err)
			}
		}

		sent++
	}

	if eligible > 0 && sent == 0 {
		return 0, fmt.Errorf("all %d deliveries failed", eligible)
	}
	s.logger.Info("notifications complete", "subject", subject, "sent", sent, "eligible", eligible)
	return sent, nil
}

func (s *Service) sendSMS(sub store.Subscriber, body string) error {
	if s.sms == nil {
		return fmt.Errorf("no sms channel configured")
	}
	if gw, ok := s.sms.(*GatewaySender); ok && sub.Carrier != "" {
		return gw.SendSMSCarrier(sub.Phone, sub.Carrier, body)
	}
	return s.sms.SendSMS(sub.Phone, body)
}
