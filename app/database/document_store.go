package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Fixed width keeps lexical order equal to chronological order
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var columnFields = map[string]string{
	"id":        "id",
	"ownerId":   "owner_id",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

type DocumentStore struct {
	db  *DB
	now func() time.Time
}

func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db, now: time.Now}
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`, collection, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s/%s: %w", collection, id, err)
	}

	return doc, nil
}

// Set inserts the document or merges its fields into the existing one.
// created_at is only written on first insert.
func (s *DocumentStore) Set(ctx context.Context, collection string, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	data := string(doc.Data)
	if strings.TrimSpace(data) == "" {
		data = "{}"
	}

	var ownerID sql.NullString
	if doc.OwnerID != "" {
		ownerID = sql.NullString{String: doc.OwnerID, Valid: true}
	}

	now := s.now().UTC().Format(timeLayout)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, owner_id, data, created_at, updated_at)
		VALUES (?, ?, ?, json(?), ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			owner_id = COALESCE(excluded.owner_id, documents.owner_id),
			data = json_patch(documents.data, excluded.data),
			updated_at = excluded.updated_at
	`, collection, doc.ID, ownerID, data, now, now)
	if err != nil {
		return fmt.Errorf("failed to set document %s/%s: %w", collection, doc.ID, err)
	}

	return nil
}

// BatchUpsert writes every document independently. A failed write does not
// stop the others; all failures are returned joined.
func (s *DocumentStore) BatchUpsert(ctx context.Context, collection string, docs []Document) error {
	var errs []error
	for _, doc := range docs {
		if err := s.Set(ctx, collection, doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *DocumentStore) Query(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

func (s *DocumentStore) List(ctx context.Context, collection string) ([]Document, error) {
	return s.Query(ctx, Query{Collection: collection, OrderBy: "id"})
}

func (s *DocumentStore) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", collection, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc       Document
		ownerID   sql.NullString
		data      string
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&doc.ID, &ownerID, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if doc.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if doc.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}

	doc.OwnerID = ownerID.String
	doc.Data = []byte(data)

	return &doc, nil
}

func buildQuery(q Query) (string, []any, error) {
	if q.Collection == "" {
		return "", nil, fmt.Errorf("collection is required")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, owner_id, data, created_at, updated_at FROM documents WHERE collection = ?`)
	args := []any{q.Collection}

	for _, f := range q.Filters {
		expr, err := fieldExpr(f.Field)
		if err != nil {
			return "", nil, err
		}

		switch f.Op {
		case OpEqual:
			if f.Value == nil {
				sb.WriteString(" AND " + expr + " IS NULL")
				continue
			}
			sb.WriteString(" AND " + expr + " = ?")
			args = append(args, bindValue(f.Value))
		case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
			sb.WriteString(" AND " + expr + " " + string(f.Op) + " ?")
			args = append(args, bindValue(f.Value))
		case OpIn:
			values, err := inValues(f.Value)
			if err != nil {
				return "", nil, fmt.Errorf("invalid value for %s in filter: %w", f.Field, err)
			}
			if len(values) == 0 {
				sb.WriteString(" AND 1 = 0")
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			sb.WriteString(" AND " + expr + " IN (" + placeholders + ")")
			args = append(args, values...)
		case OpIsNull:
			sb.WriteString(" AND " + expr + " IS NULL")
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}

	if q.OrderBy != "" {
		expr, err := fieldExpr(q.OrderBy)
		if err != nil {
			return "", nil, err
		}
		sb.WriteString(" ORDER BY " + expr)
		if q.Desc {
			sb.WriteString(" DESC")
		}
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	return sb.String(), args, nil
}

func fieldExpr(field string) (string, error) {
	if column, ok := columnFields[field]; ok {
		return column, nil
	}
	if !fieldPattern.MatchString(field) {
		return "", fmt.Errorf("invalid field name %q", field)
	}
	return fmt.Sprintf("json_extract(data, '$.%s')", field), nil
}

func bindValue(v any) any {
	switch value := v.(type) {
	case time.Time:
		return value.UTC().Format(timeLayout)
	case bool:
		if value {
			return 1
		}
		return 0
	default:
		return v
	}
}

func inValues(v any) ([]any, error) {
	switch values := v.(type) {
	case []string:
		result := make([]any, len(values))
		for i, value := range values {
			result[i] = value
		}
		return result, nil
	case []any:
		result := make([]any, len(values))
		for i, value := range values {
			result[i] = bindValue(value)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}
