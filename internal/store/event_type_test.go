package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestLookup_Absent(t *testing.T) {
	s := createTestStore(t)

	id, found, err := s.Lookup(context.Background(), "main", "post")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if found {
		t.Errorf("Lookup() found = true, id = %d; want absent", id)
	}
}

func TestInsertThenLookup(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "main", 2, "share"); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	id, found, err := s.Lookup(ctx, "main", "share")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if !found || id != 2 {
		t.Errorf("Lookup() = (%d, %v), want (2, true)", id, found)
	}
}

func TestLookup_SchemasAreIsolated(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "sim_a", 0, "post"); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	_, found, err := s.Lookup(ctx, "sim_b", "post")
	if err != nil {
		t.Fatalf("Lookup() failed: %v", err)
	}
	if found {
		t.Error("entry leaked across schemas")
	}

	// Same id and name are allowed in another schema.
	if err := s.Insert(ctx, "sim_b", 0, "post"); err != nil {
		t.Errorf("Insert() into second schema failed: %v", err)
	}
}

func TestInsert_DuplicateNameFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "main", 0, "post"); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	err := s.Insert(ctx, "main", 5, "post")
	if err == nil {
		t.Fatal("expected unique violation on duplicate name")
	}

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %T", err)
	}
	if se.Op != "insert" || se.Schema != "main" || se.Name != "post" {
		t.Errorf("unexpected error fields: %+v", se)
	}
}

func TestInsert_DuplicateIDFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "main", 0, "post"); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if err := s.Insert(ctx, "main", 0, "like"); err == nil {
		t.Fatal("expected primary key violation on duplicate id")
	}
}

func TestInsert_NamesAreParameterized(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	name := "o'brien'); DROP TABLE event_type; --"
	if err := s.Insert(ctx, "main", 0, name); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	id, found, err := s.Lookup(ctx, "main", name)
	if err != nil || !found || id != 0 {
		t.Errorf("Lookup() = (%d, %v, %v), want (0, true, nil)", id, found, err)
	}
}

func TestList(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.List(ctx, "main")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() on empty schema = %#v, want empty non-nil slice", empty)
	}

	for _, et := range []EventType{{2, "share"}, {0, "post"}, {1, "like"}} {
		if err := s.Insert(ctx, "main", et.ID, et.Name); err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
	}

	got, err := s.List(ctx, "main")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	want := []EventType{{0, "post"}, {1, "like"}, {2, "share"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	s := createTestStore(t)
	s.Close()

	_, _, err := s.Lookup(context.Background(), "main", "post")
	if !IsStoreError(err) {
		t.Errorf("Lookup() after Close = %v, want *StoreError", err)
	}
}
