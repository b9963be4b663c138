package datastore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/disaster37/opensearch/v2"
)

type OpenSearchClientImpl struct {
	client *opensearch.Client
}

// NewOpenSearchClient creates a new OpenSearch client.
// Example usage:
//
//	client, err := NewOpenSearchClient(opensearch.SetURL("http://localhost:9200"))
func NewOpenSearchClient(options ...opensearch.ClientOptionFunc) (OpenSearchClient, error) {
	client, err := opensearch.NewClient(options...)
	if err != nil {
		return nil, err
	}
	return &OpenSearchClientImpl{client: client}, nil
}

func (c *OpenSearchClientImpl) Index(ctx context.Context, index, id string, body interface{}) error {
	source, err := encode(body)
	if err != nil {
		return err
	}
	resp, err := c.client.Index().Index(index).Id(id).BodyJson(source).Do(ctx)
	if err != nil {
		return err
	}
	if resp.Result != "created" && resp.Result != "updated" {
		return fmt.Errorf("index error: %v", resp.Result)
	}
	return nil
}

func (c *OpenSearchClientImpl) BulkIndex(ctx context.Context, index string, docs []BulkDoc) error {
	if len(docs) == 0 {
		return nil
	}

	bulk := c.client.Bulk()
	for _, doc := range docs {
		source, err := encode(doc.Body)
		if err != nil {
			return err
		}
		switch doc.Action {
		case "index", "":
			req := opensearch.NewBulkIndexRequest().Index(index).Doc(source)
			if doc.ID != "" {
				req.Id(doc.ID)
			}
			bulk.Add(req)
		case "create":
			req := opensearch.NewBulkCreateRequest().Index(index).Doc(source)
			if doc.ID != "" {
				req.Id(doc.ID)
			}
			bulk.Add(req)
		default:
			return fmt.Errorf("unsupported bulk action %q", doc.Action)
		}
	}

	resp, err := bulk.Do(ctx)
	if err != nil {
		return err
	}
	if resp.Errors {
		return fmt.Errorf("bulk error: %d of %d items failed", len(resp.Failed()), len(docs))
	}
	return nil
}

func (c *OpenSearchClientImpl) Close() error {
	c.client.Stop()
	return nil
}

// encode serializes documents with sonic; the client sends raw JSON verbatim
func encode(body interface{}) (json.RawMessage, error) {
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := sonic.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return json.RawMessage(data), nil
}
