// Package customer defines the value handed to downstream simulation: one
// synthetic customer with its monthly behavior rates.
package customer

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/ratesynth/internal/sampling"
)

// IDGenerator produces customer identifiers.
// Implemented by UUIDv7Generator (production) and
// testutil.SequentialIDGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 customer IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Customer is a generated customer. It owns its rates; the model that drew
// them keeps no reference.
type Customer struct {
	ID           string          `json:"id"`
	Rates        []sampling.Rate `json:"rates"`
	StartOfMonth time.Time       `json:"start_of_month"`
	Args         map[string]any  `json:"args,omitempty"`

	// Channel names the model version that produced the rates. Only set for
	// log-normal models.
	Channel string `json:"channel,omitempty"`
}

// New builds a customer from a drawn rate vector.
func New(id string, v sampling.RateVector, startOfMonth time.Time, args map[string]any) Customer {
	return Customer{
		ID:           id,
		Rates:        append([]sampling.Rate(nil), v.Rates...),
		StartOfMonth: startOfMonth,
		Args:         args,
		Channel:      v.Channel,
	}
}

// Rate returns the monthly rate of behavior.
func (c Customer) Rate(behavior string) (float64, bool) {
	for _, r := range c.Rates {
		if r.Behavior == behavior {
			return r.MonthlyRate, true
		}
	}
	return 0, false
}

// StartOfMonth truncates t to midnight UTC on the first of its month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
