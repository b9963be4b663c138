package datastore

import (
	"context"
)

// OpenSearchClient is the subset of OpenSearch operations the result sink needs
type OpenSearchClient interface {
	// Index a single document
	Index(ctx context.Context, index string, id string, body interface{}) error

	// BulkIndex indexes multiple documents in one request
	BulkIndex(ctx context.Context, index string, docs []BulkDoc) error

	// Close releases any resources held by the client
	Close() error
}

// BulkDoc represents a document for bulk operations.
// ID can be empty for auto-generated IDs; Action is "index" or "create".
type BulkDoc struct {
	ID     string
	Body   interface{}
	Action string
}
