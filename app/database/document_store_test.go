package database

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *DocumentStore {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewDocumentStore(db)
}

// steppingClock returns a clock that advances one second per call.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := NewConnection(filepath.Join(t.TempDir(), "nested", "news.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	version, dirty, err := RunMigrations(db)
	if err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("Expected clean version 2, got %d (dirty=%v)", version, dirty)
	}

	if _, _, err := RunMigrations(db); err != nil {
		t.Errorf("Expected second run to be a no-op, got %v", err)
	}
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := setupTestStore(t)

	doc, err := store.Get(context.Background(), CollectionNewsItems, "missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if doc != nil {
		t.Errorf("Expected nil document, got %+v", doc)
	}
}

func TestDocumentStore_SetMergesAndPreservesCreatedAt(t *testing.T) {
	store := setupTestStore(t)
	store.now = steppingClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	if err := store.Set(ctx, "things", Document{ID: "a", OwnerID: "u1", Data: json.RawMessage(`{"x":1,"y":"keep"}`)}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	first, _ := store.Get(ctx, "things", "a")

	if err := store.Set(ctx, "things", Document{ID: "a", Data: json.RawMessage(`{"x":2,"z":true}`)}); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	second, err := store.Get(ctx, "things", "a")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}

	var data map[string]any
	if err := second.Decode(&data); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if data["x"] != float64(2) || data["y"] != "keep" || data["z"] != true {
		t.Errorf("Expected merged data, got %v", data)
	}

	if second.OwnerID != "u1" {
		t.Errorf("Expected owner to survive a write without owner, got %q", second.OwnerID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("Expected createdAt to be preserved, got %v and %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("Expected updatedAt to advance, got %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestDocumentStore_SetRequiresID(t *testing.T) {
	store := setupTestStore(t)

	if err := store.Set(context.Background(), "things", Document{Data: json.RawMessage(`{}`)}); err == nil {
		t.Errorf("Expected error for missing id")
	}
}

func TestDocumentStore_BatchUpsertJoinsFailures(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.BatchUpsert(ctx, "things", []Document{
		{ID: "ok-1", Data: json.RawMessage(`{"n":1}`)},
		{ID: "bad", Data: json.RawMessage(`{not json`)},
		{ID: "ok-2", Data: json.RawMessage(`{"n":2}`)},
	})
	if err == nil {
		t.Fatalf("Expected aggregate error")
	}

	count, err := store.Count(ctx, "things")
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected independent writes to succeed, got %d documents", count)
	}
}

func TestDocumentStore_Query(t *testing.T) {
	store := setupTestStore(t)
	store.now = steppingClock(time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	docs := []Document{
		{ID: "1", Data: json.RawMessage(`{"date":"2024-01-14","source":"CNBC","rank":3}`)},
		{ID: "2", OwnerID: "u1", Data: json.RawMessage(`{"date":"2024-01-15","source":"Reddit","rank":1}`)},
		{ID: "3", Data: json.RawMessage(`{"date":"2024-01-15","source":"CNBC","rank":2}`)},
		{ID: "4", Data: json.RawMessage(`{"date":"2024-01-15","source":"Twitter/X","rank":5}`)},
	}
	if err := store.BatchUpsert(ctx, "items", docs); err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	tests := []struct {
		name     string
		query    Query
		expected []string
	}{
		{
			name:     "equality on data field",
			query:    Query{Collection: "items", Filters: []Filter{{Field: "date", Op: OpEqual, Value: "2024-01-15"}}, OrderBy: "id"},
			expected: []string{"2", "3", "4"},
		},
		{
			name:     "owner is null",
			query:    Query{Collection: "items", Filters: []Filter{{Field: "ownerId", Op: OpIsNull}}, OrderBy: "id"},
			expected: []string{"1", "3", "4"},
		},
		{
			name:     "in list",
			query:    Query{Collection: "items", Filters: []Filter{{Field: "source", Op: OpIn, Value: []string{"CNBC", "Reddit"}}}, OrderBy: "id"},
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "empty in list matches nothing",
			query:    Query{Collection: "items", Filters: []Filter{{Field: "source", Op: OpIn, Value: []string{}}}},
			expected: []string{},
		},
		{
			name:     "range and order",
			query:    Query{Collection: "items", Filters: []Filter{{Field: "rank", Op: OpGreaterEqual, Value: 2}}, OrderBy: "rank", Desc: true},
			expected: []string{"4", "1", "3"},
		},
		{
			name:     "updatedAt desc with limit",
			query:    Query{Collection: "items", OrderBy: "updatedAt", Desc: true, Limit: 2},
			expected: []string{"4", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := store.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(result) != len(tt.expected) {
				t.Fatalf("Expected %d documents, got %d", len(tt.expected), len(result))
			}
			for i, id := range tt.expected {
				if result[i].ID != id {
					t.Errorf("Expected document %d to be %s, got %s", i, id, result[i].ID)
				}
			}
		})
	}
}

func TestDocumentStore_QueryRejectsBadInput(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	bad := []Query{
		{},
		{Collection: "items", Filters: []Filter{{Field: "x') OR 1=1 --", Op: OpEqual, Value: 1}}},
		{Collection: "items", Filters: []Filter{{Field: "x", Op: "like", Value: 1}}},
		{Collection: "items", Filters: []Filter{{Field: "x", Op: OpIn, Value: "not a list"}}},
		{Collection: "items", OrderBy: "bad field"},
	}

	for i, q := range bad {
		if _, err := store.Query(ctx, q); err == nil {
			t.Errorf("Query %d: expected error", i)
		}
	}
}

func TestDocumentStore_ListAndCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := store.Set(ctx, CollectionUsers, Document{ID: id}); err != nil {
			t.Fatalf("Failed to set %s: %v", id, err)
		}
	}
	store.Set(ctx, "other", Document{ID: "z"})

	docs, err := store.List(ctx, CollectionUsers)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(docs) != 3 || docs[0].ID != "a" || docs[2].ID != "c" {
		t.Errorf("Expected documents ordered by id, got %v", docs)
	}

	count, err := store.Count(ctx, CollectionUsers)
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 documents, got %d", count)
	}
}
