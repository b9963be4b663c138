package configstore

import (
	"context"
)

// ConfigStore is a document store in the shape of a MongoDB database.
// Filters and updates are bson documents.
type ConfigStore interface {
	InsertOne(ctx context.Context, collection string, document interface{}) (insertedID interface{}, err error)
	FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error
	FindMany(ctx context.Context, collection string, filter interface{}, results interface{}) error
	UpsertOne(ctx context.Context, collection string, filter interface{}, update interface{}) error
	CountDocuments(ctx context.Context, collection string, filter interface{}) (int64, error)
	Close() error
}
