// Package notify delivers price alerts to users over email. In-app delivery
// is the notification row itself, so the dispatcher only decides whether an
// email goes out and reports the outcome.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/pricing"
	"github.com/mailjet/mailjet-apiv3-go"
	"github.com/shopspring/decimal"
)

// Message is everything a price alert email needs.
type Message struct {
	To               string
	UserName         string
	Type             string
	Origin           string
	Destination      string
	Currency         string
	TargetPrice      decimal.Decimal
	OldPrice         *decimal.Decimal
	NewPrice         decimal.Decimal
	PriceDrop        decimal.Decimal
	PriceDropPercent decimal.Decimal
	BookingURL       string
}

func (m Message) route() string {
	return m.Origin + " → " + m.Destination
}

// Channels carries the recipient's delivery preferences.
type Channels struct {
	Email bool
	InApp bool
}

type Result struct {
	EmailSent bool
}

// Email is a rendered message ready for a Sender.
type Email struct {
	To       string
	ToName   string
	Subject  string
	HTML     string
	TextPart string
}

// Sender hands a rendered email to a mail provider.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

type Dispatcher struct {
	sender Sender
}

// NewDispatcher returns a dispatcher. A nil sender disables email and every
// delivery reports EmailSent=false.
func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Deliver sends msg over the enabled channels. Failures are logged and
// reported through Result; they are never returned.
func (d *Dispatcher) Deliver(ctx context.Context, msg Message, ch Channels) Result {
	if !ch.Email {
		return Result{}
	}
	if msg.To == "" {
		slog.Warn("email skipped: recipient has no address", "type", msg.Type, "route", msg.route())
		return Result{}
	}
	if d.sender == nil {
		slog.Warn("email skipped: mail provider not configured", "type", msg.Type, "route", msg.route())
		return Result{}
	}

	subject, html, err := Render(msg)
	if err != nil {
		slog.Error("failed to render email", "error", err, "type", msg.Type)
		return Result{}
	}

	e := Email{
		To:       msg.To,
		ToName:   msg.UserName,
		Subject:  subject,
		HTML:     html,
		TextPart: pricing.FormatMoney(msg.NewPrice, msg.Currency) + " for " + msg.route(),
	}
	if err := d.sender.Send(ctx, e); err != nil {
		slog.Error("failed to send email", "error", err, "type", msg.Type, "route", msg.route())
		return Result{}
	}

	slog.Info("email sent", "type", msg.Type, "route", msg.route())
	return Result{EmailSent: true}
}

// Subject returns the email subject line for msg's notification type.
func Subject(msg Message) string {
	price := pricing.FormatMoney(msg.NewPrice, msg.Currency)
	switch msg.Type {
	case models.NotificationBelowTarget:
		return fmt.Sprintf("Price Alert! %s is now %s (Below your target!)", msg.route(), price)
	case models.NotificationPriceDrop:
		return fmt.Sprintf("Price Drop! %s decreased by %s%%", msg.route(), msg.PriceDropPercent.StringFixed(1))
	case models.NotificationRiseAfterDrop:
		return fmt.Sprintf("Price Increase Alert - %s rose to %s", msg.route(), price)
	}
	return "Flight Price Update - " + msg.route()
}

// MailjetSender sends email through the Mailjet v3.1 send API.
type MailjetSender struct {
	client    *mailjet.Client
	fromEmail string
	fromName  string
}

func NewMailjetSender(publicKey, privateKey, fromEmail, fromName string) *MailjetSender {
	return &MailjetSender{
		client:    mailjet.NewMailjetClient(publicKey, privateKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *MailjetSender) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info := []mailjet.InfoMessagesV31{{
		From:     &mailjet.RecipientV31{Email: s.fromEmail, Name: s.fromName},
		To:       &mailjet.RecipientsV31{mailjet.RecipientV31{Email: e.To, Name: e.ToName}},
		Subject:  e.Subject,
		TextPart: e.TextPart,
		HTMLPart: e.HTML,
	}}
	msgs := mailjet.MessagesV31{Info: info}
	if _, err := s.client.SendMailV31(&msgs); err != nil {
		return fmt.Errorf("could not send mail: %w", err)
	}
	return nil
}
