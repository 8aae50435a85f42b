package store

import (
	"context"
	"database/sql"
	"errors"
)

// EventType is one vocabulary entry.
type EventType struct {
	ID   int64  `json:"event_type_id"`
	Name string `json:"event_type_name"`
}

// Lookup returns the id registered for name in schema.
// found is false when no entry exists.
func (s *Store) Lookup(ctx context.Context, schema, name string) (id int64, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT event_type_id FROM event_type
		WHERE schema_name = ? AND event_type_name = ?
	`, schema, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &StoreError{Op: "lookup", Schema: schema, Name: name, Err: err}
	}
	return id, true, nil
}

// Insert adds (id, name) to schema. It is a plain insert: an existing id or
// name in the same schema is a constraint violation and returns an error.
func (s *Store) Insert(ctx context.Context, schema string, id int64, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_type (schema_name, event_type_id, event_type_name)
		VALUES (?, ?, ?)
	`, schema, id, name)
	if err != nil {
		return &StoreError{Op: "insert", Schema: schema, Name: name, Err: err}
	}
	return nil
}

// List returns the vocabulary of schema ordered by id.
// Returns an empty slice (not nil) when the schema has no entries.
func (s *Store) List(ctx context.Context, schema string) ([]EventType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type_id, event_type_name FROM event_type
		WHERE schema_name = ?
		ORDER BY event_type_id ASC
	`, schema)
	if err != nil {
		return nil, &StoreError{Op: "list", Schema: schema, Err: err}
	}
	defer rows.Close()

	types := []EventType{}
	for rows.Next() {
		var et EventType
		if err := rows.Scan(&et.ID, &et.Name); err != nil {
			return nil, &StoreError{Op: "list", Schema: schema, Err: err}
		}
		types = append(types, et)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Schema: schema, Err: err}
	}
	return types, nil
}
