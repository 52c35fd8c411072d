// Package checker runs price checks: one subscription at a time through
// Checker, or every active subscription through Runner.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/notify"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/provider"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source returns the live candidates for a query. An empty result is not an
// error.
type Source interface {
	FetchCandidates(ctx context.Context, q provider.Query) ([]provider.Candidate, error)
}

// Dispatcher delivers a notification over the recipient's channels. It
// never fails; the outcome is in the result.
type Dispatcher interface {
	Deliver(ctx context.Context, msg notify.Message, ch notify.Channels) notify.Result
}

type Observer interface {
	ObserveCheck(outcome string)
	ObserveNotification(notificationType string)
	ObserveEmail(sent bool)
	ObserveBatch(status string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveCheck(string)                {}
func (nopObserver) ObserveNotification(string)         {}
func (nopObserver) ObserveEmail(bool)                  {}
func (nopObserver) ObserveBatch(string, time.Duration) {}

type Options struct {
	Params       pricing.Params
	NotifyPolicy string
	Observer     Observer
	Now          func() time.Time
}

// Result is the outcome of one subscription check.
type Result struct {
	TrackedFlightID  uuid.UUID        `json:"tracked_flight_id"`
	Route            string           `json:"route"`
	PreviousPrice    *decimal.Decimal `json:"previous_price"`
	CurrentPrice     decimal.Decimal  `json:"current_price"`
	PriceDrop        decimal.Decimal  `json:"price_drop"`
	PriceDropPercent decimal.Decimal  `json:"price_drop_percent"`
	NotificationSent bool             `json:"notification_sent"`
	NotificationType string           `json:"notification_type,omitempty"`
	Suppressed       bool             `json:"suppressed,omitempty"`
	EmailSent        bool             `json:"email_sent"`
	Error            string           `json:"error,omitempty"`
}

type Checker struct {
	source     Source
	store      Store
	dispatcher Dispatcher
	params     pricing.Params
	policy     string
	observer   Observer
	now        func() time.Time
}

func New(source Source, store Store, dispatcher Dispatcher, opts Options) *Checker {
	c := &Checker{
		source:     source,
		store:      store,
		dispatcher: dispatcher,
		params:     opts.Params,
		policy:     opts.NotifyPolicy,
		observer:   opts.Observer,
		now:        opts.Now,
	}
	if c.params.FallbackMultiplier.IsZero() {
		c.params = pricing.DefaultParams()
	}
	if c.policy == "" {
		c.policy = config.NotifyEveryCheck
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Store returns the store the checker writes to.
func (c *Checker) Store() Store { return c.store }

// CheckSubscription fetches the current price of flight, records exactly one
// price sample and raises at most one notification.
func (c *Checker) CheckSubscription(ctx context.Context, flight models.TrackedFlight) (Result, error) {
	res, err := c.check(ctx, flight)
	if err != nil {
		c.observer.ObserveCheck(metrics.CheckError)
		return res, err
	}
	c.observer.ObserveCheck(metrics.CheckOK)
	return res, nil
}

func (c *Checker) check(ctx context.Context, flight models.TrackedFlight) (Result, error) {
	now := c.now().UTC()
	res := Result{TrackedFlightID: flight.ID, Route: flight.Route()}

	previous, err := c.store.LatestPrice(ctx, flight.ID)
	if err != nil {
		return res, fmt.Errorf("failed to load latest price: %w", err)
	}

	searchDate := flight.SearchDate(now)
	q := provider.Query{
		Origin:      flight.Origin,
		Destination: flight.Destination,
		Date:        searchDate,
		Adults:      1,
	}
	if flight.IsRoundTrip && flight.ReturnDate != nil {
		q.ReturnDate = flight.ReturnDate.UTC().Format(time.DateOnly)
	}
	candidates, err := c.source.FetchCandidates(ctx, q)
	if err != nil {
		return res, fmt.Errorf("failed to fetch prices: %w", err)
	}

	best := pricing.BestCandidate(candidates)
	d := pricing.Decide(pricing.Input{
		PreviousPrice: previous,
		TargetPrice:   flight.TargetPrice,
		Best:          best,
	}, c.params)

	sample := &models.PriceUpdate{
		TrackedFlightID: flight.ID,
		Price:           d.CurrentPrice,
		Currency:        flight.Currency,
		RecordedAt:      now,
	}
	if best != nil {
		sample.Airline = best.Airline
		sample.FlightNumber = best.FlightNumber
		sample.DepartureTime = departureAt(searchDate, best.DepartureTime)
	}
	if err := c.store.AppendPrice(ctx, sample); err != nil {
		return res, fmt.Errorf("failed to record price: %w", err)
	}

	res.PreviousPrice = d.PreviousPrice
	res.CurrentPrice = d.CurrentPrice
	res.PriceDrop = d.PriceDrop
	res.PriceDropPercent = d.PriceDropPercent

	if !d.Notify() {
		return res, nil
	}
	res.NotificationType = d.Type

	if c.suppressed(flight, d) {
		res.Suppressed = true
		slog.Debug("notification suppressed", "flight_id", flight.ID, "type", d.Type)
		return res, nil
	}

	recipient, err := c.store.Recipient(ctx, flight.UserID)
	if err != nil {
		return res, fmt.Errorf("failed to load recipient: %w", err)
	}
	ch := channels(recipient.Preferences)

	bookingURL := ""
	if best != nil {
		bookingURL = best.BookingURL
	}
	n := &models.Notification{
		UserID:          flight.UserID,
		TrackedFlightID: flight.ID,
		Message:         pricing.Message(flight.Route(), d, flight.TargetPrice, flight.Currency),
		Type:            d.Type,
		SentViaInApp:    ch.InApp,
		CreatedAt:       now,
	}
	if err := n.SetMetadata(models.NotificationMetadata{
		OldPrice:         d.PreviousPrice,
		NewPrice:         d.CurrentPrice,
		TargetPrice:      flight.TargetPrice,
		PriceDrop:        d.PriceDrop,
		PriceDropPercent: d.PriceDropPercent,
		BookingURL:       bookingURL,
	}); err != nil {
		return res, fmt.Errorf("failed to encode notification metadata: %w", err)
	}
	if err := c.store.AppendNotification(ctx, n); err != nil {
		return res, fmt.Errorf("failed to record notification: %w", err)
	}
	if err := c.store.TouchLastNotified(ctx, flight.ID, d.CurrentPrice, d.Type); err != nil {
		slog.Error("failed to update last notification", "error", err, "flight_id", flight.ID)
	}
	res.NotificationSent = true
	c.observer.ObserveNotification(d.Type)

	name := recipient.Name
	if name == "" {
		name = "Traveler"
	}
	delivery := c.dispatcher.Deliver(ctx, notify.Message{
		To:               recipient.Email,
		UserName:         name,
		Type:             d.Type,
		Origin:           flight.Origin,
		Destination:      flight.Destination,
		Currency:         flight.Currency,
		TargetPrice:      flight.TargetPrice,
		OldPrice:         d.PreviousPrice,
		NewPrice:         d.CurrentPrice,
		PriceDrop:        d.PriceDrop,
		PriceDropPercent: d.PriceDropPercent,
		BookingURL:       bookingURL,
	}, ch)
	if ch.Email {
		c.observer.ObserveEmail(delivery.EmailSent)
	}
	if delivery.EmailSent {
		if err := c.store.MarkEmailSent(ctx, n.ID); err != nil {
			slog.Error("failed to mark notification emailed", "error", err, "flight_id", flight.ID)
		} else {
			res.EmailSent = true
		}
	}

	slog.Info("notification raised",
		"flight_id", flight.ID,
		"route", res.Route,
		"type", d.Type,
		"price", d.CurrentPrice.String(),
		"email_sent", res.EmailSent,
	)
	return res, nil
}

// suppressed reports whether the on_change policy silences a repeat of the
// last notification at the same price.
func (c *Checker) suppressed(flight models.TrackedFlight, d pricing.Decision) bool {
	if c.policy != config.NotifyOnChange {
		return false
	}
	return flight.LastNotificationType == d.Type &&
		flight.LastNotifiedPrice != nil &&
		flight.LastNotifiedPrice.Equal(d.CurrentPrice)
}

// channels maps stored preferences to delivery channels. Without a saved
// row in-app stays on and email stays off.
func channels(p *models.UserPreferences) notify.Channels {
	if p == nil {
		return notify.Channels{Email: false, InApp: true}
	}
	return notify.Channels{Email: p.EmailNotifications, InApp: p.InAppNotifications}
}

func departureAt(date, hhmm string) *time.Time {
	if hhmm == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04", date+" "+hhmm)
	if err != nil {
		return nil
	}
	return &t
}
