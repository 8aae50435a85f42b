// Package registrar keeps a store's event-type vocabulary in line with a
// behavior model.
package registrar

import (
	"context"
	"log/slog"
)

// EventTypeStore is the vocabulary a registrar writes to.
type EventTypeStore interface {
	Lookup(ctx context.Context, schema, name string) (id int64, found bool, err error)
	Insert(ctx context.Context, schema string, id int64, name string) error
}

// EnsureRegistered inserts every behavior missing from schema's vocabulary,
// keyed by its position in behaviors. Entries that already exist are left
// untouched, so repeated calls are no-ops.
//
// Each behavior is one lookup and at most one insert; there is no
// transaction across behaviors. Store errors are returned unchanged and the
// remaining behaviors are skipped. A partial run is safe to repeat.
func EnsureRegistered(ctx context.Context, schema string, store EventTypeStore, behaviors []string) (inserted int, err error) {
	for idx, name := range behaviors {
		id, found, err := store.Lookup(ctx, schema, name)
		if err != nil {
			return inserted, err
		}
		if found {
			slog.Debug("event type present", "schema", schema, "event", name, "id", id)
			continue
		}

		if err := store.Insert(ctx, schema, int64(idx), name); err != nil {
			return inserted, err
		}
		inserted++
		slog.Info("event type registered", "schema", schema, "event", name, "id", idx)
	}
	return inserted, nil
}
