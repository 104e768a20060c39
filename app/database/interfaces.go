package database

import (
	"context"
)

type DocumentStoreInterface interface {
	Get(ctx context.Context, collection, id string) (*Document, error)
	Set(ctx context.Context, collection string, doc Document) error
	BatchUpsert(ctx context.Context, collection string, docs []Document) error
	Query(ctx context.Context, q Query) ([]Document, error)
	List(ctx context.Context, collection string) ([]Document, error)
	Count(ctx context.Context, collection string) (int, error)
}
