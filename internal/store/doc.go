// Package store provides SQLite-backed storage for event-type vocabularies.
//
// Each simulation schema owns a vocabulary of event types: an integer id and a
// unique name per behavior. The schema name is a column rather than a SQL
// schema, so every statement is parameterized.
//
// # Table
//
//	event_type(schema_name, event_type_id, event_type_name)
//	  PRIMARY KEY (schema_name, event_type_id)
//	  UNIQUE      (schema_name, event_type_name)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The store never retries. Every failure is returned as a *StoreError and is
// left to the caller to handle.
package store
