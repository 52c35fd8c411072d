// Package pricing holds the price-check decision: given the previous price,
// the target and the best live candidate, it derives the current price and
// picks at most one notification type.
package pricing

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/provider"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	cent    = decimal.New(1, -2)
)

// Params are the tunable thresholds of the decision.
type Params struct {
	// DropThresholdPercent is the minimum drop since the previous price
	// that raises a generic price-drop notification.
	DropThresholdPercent decimal.Decimal
	// FallbackMultiplier seeds the current price as target × multiplier
	// when there is neither a live candidate nor any history. Must be > 1.
	FallbackMultiplier decimal.Decimal
}

func DefaultParams() Params {
	return Params{
		DropThresholdPercent: decimal.NewFromInt(5),
		FallbackMultiplier:   decimal.RequireFromString("1.2"),
	}
}

type Input struct {
	PreviousPrice *decimal.Decimal
	TargetPrice   decimal.Decimal
	Best          *provider.Candidate
}

type Decision struct {
	PreviousPrice    *decimal.Decimal
	CurrentPrice     decimal.Decimal
	PriceDrop        decimal.Decimal
	PriceDropPercent decimal.Decimal
	// Type is one of the models.Notification* constants, or empty when no
	// notification is due.
	Type string
}

func (d Decision) Notify() bool { return d.Type != "" }

// BestCandidate returns the cheapest candidate. Ties go to the earliest
// one. It returns nil for an empty slice.
func BestCandidate(candidates []provider.Candidate) *provider.Candidate {
	var best *provider.Candidate
	for i := range candidates {
		if best == nil || candidates[i].Price.LessThan(best.Price) {
			best = &candidates[i]
		}
	}
	return best
}

// FallbackPrice is target × multiplier rounded up to the cent, and always
// at least one cent above target.
func FallbackPrice(target decimal.Decimal, p Params) decimal.Decimal {
	price := target.Mul(p.FallbackMultiplier).RoundCeil(2)
	if price.LessThanOrEqual(target) {
		price = target.RoundCeil(2).Add(cent)
	}
	return price
}

// Decide applies the notification rules in priority order; the first
// matching rule wins.
func Decide(in Input, p Params) Decision {
	d := Decision{PreviousPrice: in.PreviousPrice}

	switch {
	case in.Best != nil:
		d.CurrentPrice = in.Best.Price
	case in.PreviousPrice != nil:
		d.CurrentPrice = *in.PreviousPrice
	default:
		d.CurrentPrice = FallbackPrice(in.TargetPrice, p)
	}

	percent := decimal.Zero
	if in.PreviousPrice != nil {
		prev := *in.PreviousPrice
		d.PriceDrop = prev.Sub(d.CurrentPrice)
		if !prev.IsZero() {
			percent = d.PriceDrop.Div(prev).Mul(hundred)
		}
	}
	d.PriceDropPercent = percent.Round(2)

	prev := in.PreviousPrice
	switch {
	case d.CurrentPrice.LessThanOrEqual(in.TargetPrice):
		d.Type = models.NotificationBelowTarget
	case prev != nil && d.CurrentPrice.LessThan(*prev) && percent.GreaterThanOrEqual(p.DropThresholdPercent):
		d.Type = models.NotificationPriceDrop
	case prev != nil && d.CurrentPrice.GreaterThan(*prev) && prev.LessThanOrEqual(in.TargetPrice):
		d.Type = models.NotificationRiseAfterDrop
	}
	return d
}

// Message renders the in-app text for a decision. It returns "" when no
// notification is due.
func Message(route string, d Decision, target decimal.Decimal, currency string) string {
	current := FormatMoney(d.CurrentPrice, currency)
	switch d.Type {
	case models.NotificationBelowTarget:
		return fmt.Sprintf("Price alert! %s is now %s (below your target of %s)",
			route, current, FormatMoney(target, currency))
	case models.NotificationPriceDrop:
		return fmt.Sprintf("Price dropped! %s decreased by %s%% to %s",
			route, d.PriceDropPercent.StringFixed(1), current)
	case models.NotificationRiseAfterDrop:
		previous := ""
		if d.PreviousPrice != nil {
			previous = FormatMoney(*d.PreviousPrice, currency)
		}
		return fmt.Sprintf("Price increased! %s rose to %s (was %s)", route, current, previous)
	}
	return ""
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"GBP": "£",
	"USD": "$",
}

// FormatMoney renders an amount with two decimals and the currency symbol,
// falling back to the ISO code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	if sym, ok := currencySymbols[currency]; ok {
		return sym + amount.StringFixed(2)
	}
	if currency == "" {
		return amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}
