package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lysyi3m/news-tracker/app/news"
)

type NewsRepository struct {
	store DocumentStoreInterface
}

func NewNewsRepository(store DocumentStoreInterface) *NewsRepository {
	return &NewsRepository{store: store}
}

// citationRecord is a citation stored with a reference to its item
type citationRecord struct {
	news.Citation
	ItemID string `json:"itemId"`
}

// UpsertItems writes every item independently, merging into existing
// records with the same id.
func (r *NewsRepository) UpsertItems(ctx context.Context, items []news.Item) error {
	var errs []error
	docs := make([]Document, 0, len(items))

	for _, item := range items {
		doc, err := itemDocument(item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}

	if err := r.store.BatchUpsert(ctx, CollectionNewsItems, docs); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *NewsRepository) QueryItems(ctx context.Context, q news.ItemQuery) ([]news.Item, error) {
	query := Query{
		Collection: CollectionNewsItems,
		OrderBy:    "updatedAt",
		Desc:       true,
		Limit:      q.Limit,
	}

	if q.Date != "" {
		query.Filters = append(query.Filters, Filter{Field: "date", Op: OpEqual, Value: q.Date})
	}
	if q.OwnerID != "" {
		query.Filters = append(query.Filters, Filter{Field: "ownerId", Op: OpEqual, Value: q.OwnerID})
	} else {
		query.Filters = append(query.Filters, Filter{Field: "ownerId", Op: OpIsNull})
	}
	if len(q.Sources) > 0 {
		query.Filters = append(query.Filters, Filter{Field: "source", Op: OpIn, Value: q.Sources})
	}

	docs, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query news items: %w", err)
	}

	return decodeItems(docs)
}

func (r *NewsRepository) GetItem(ctx context.Context, id string) (*news.Item, error) {
	doc, err := r.store.Get(ctx, CollectionNewsItems, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	item, err := decodeItem(*doc)
	if err != nil {
		return nil, err
	}

	return &item, nil
}

func (r *NewsRepository) CountItems(ctx context.Context) (int, error) {
	return r.store.Count(ctx, CollectionNewsItems)
}

// ItemsPendingCitations returns items dated since the given day that have a
// URL and no citation extraction attempt yet.
func (r *NewsRepository) ItemsPendingCitations(ctx context.Context, since string, limit int) ([]news.Item, error) {
	docs, err := r.store.Query(ctx, Query{
		Collection: CollectionNewsItems,
		Filters: []Filter{
			{Field: "date", Op: OpGreaterEqual, Value: since},
			{Field: "url", Op: OpGreater, Value: ""},
			{Field: "citationStatus", Op: OpIsNull},
		},
		OrderBy: "updatedAt",
		Desc:    true,
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get items pending citations: %w", err)
	}

	return decodeItems(docs)
}

func (r *NewsRepository) MarkCitationStatus(ctx context.Context, itemID, status string) error {
	return r.patchItem(ctx, itemID, map[string]any{"citationStatus": status})
}

// RecordCitationAttempt stores the failed attempt count and leaves the item
// pending for the next extraction run.
func (r *NewsRepository) RecordCitationAttempt(ctx context.Context, itemID string, attempts int) error {
	return r.patchItem(ctx, itemID, map[string]any{"citationAttempts": attempts})
}

func (r *NewsRepository) patchItem(ctx context.Context, itemID string, fields map[string]any) error {
	existing, err := r.store.Get(ctx, CollectionNewsItems, itemID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("news item %s not found", itemID)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode news item update: %w", err)
	}

	return r.store.Set(ctx, CollectionNewsItems, Document{ID: itemID, Data: data})
}

func (r *NewsRepository) GetDetail(ctx context.Context, id string) (*news.Detail, error) {
	doc, err := r.store.Get(ctx, CollectionNewsDetails, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	var detail news.Detail
	if err := doc.Decode(&detail); err != nil {
		return nil, fmt.Errorf("failed to decode news detail %s: %w", id, err)
	}
	detail.ID = doc.ID
	detail.OwnerID = doc.OwnerID
	detail.CreatedAt = doc.CreatedAt
	detail.UpdatedAt = doc.UpdatedAt

	return &detail, nil
}

func (r *NewsRepository) StoreDetail(ctx context.Context, detail news.Detail) error {
	ownerID := detail.OwnerID
	detail.OwnerID = ""
	detail.CreatedAt, detail.UpdatedAt = zeroTime, zeroTime

	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("failed to encode news detail %s: %w", detail.ID, err)
	}

	return r.store.Set(ctx, CollectionNewsDetails, Document{ID: detail.ID, OwnerID: ownerID, Data: data})
}

func (r *NewsRepository) GetCitations(ctx context.Context, itemID string) ([]news.Citation, error) {
	docs, err := r.store.Query(ctx, Query{
		Collection: CollectionCitations,
		Filters:    []Filter{{Field: "itemId", Op: OpEqual, Value: itemID}},
		OrderBy:    "createdAt",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get citations: %w", err)
	}

	citations := make([]news.Citation, 0, len(docs))
	for _, doc := range docs {
		var record citationRecord
		if err := doc.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode citation %s: %w", doc.ID, err)
		}
		citations = append(citations, record.Citation)
	}

	return citations, nil
}

func (r *NewsRepository) StoreCitations(ctx context.Context, itemID string, citations []news.Citation) error {
	docs := make([]Document, 0, len(citations))
	for _, citation := range citations {
		data, err := json.Marshal(citationRecord{Citation: citation, ItemID: itemID})
		if err != nil {
			return fmt.Errorf("failed to encode citation %s: %w", citation.ID, err)
		}
		docs = append(docs, Document{ID: itemID + ":" + citation.ID, Data: data})
	}

	return r.store.BatchUpsert(ctx, CollectionCitations, docs)
}

func itemDocument(item news.Item) (Document, error) {
	ownerID := item.OwnerID
	item.OwnerID = ""
	item.CreatedAt, item.UpdatedAt = zeroTime, zeroTime

	data, err := json.Marshal(item)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode news item %s: %w", item.ID, err)
	}

	return Document{ID: item.ID, OwnerID: ownerID, Data: data}, nil
}

func decodeItem(doc Document) (news.Item, error) {
	var item news.Item
	if err := doc.Decode(&item); err != nil {
		return news.Item{}, fmt.Errorf("failed to decode news item %s: %w", doc.ID, err)
	}

	item.ID = doc.ID
	item.OwnerID = doc.OwnerID
	item.CreatedAt = doc.CreatedAt
	item.UpdatedAt = doc.UpdatedAt

	return item, nil
}

func decodeItems(docs []Document) ([]news.Item, error) {
	items := make([]news.Item, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
