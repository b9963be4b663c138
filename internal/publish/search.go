package publish

import (
	"context"
	"fmt"

	"smokegomodule/internal/types"
	"smokegomodule/shared/datastore"
)

// runDocument summarizes a run in the runs index
type runDocument struct {
	RunID     string        `json:"run_id"`
	Timestamp string        `json:"timestamp"`
	BaseURL   string        `json:"base_url"`
	Duration  int64         `json:"duration_ms"`
	Summary   types.Summary `json:"summary"`
}

// SearchPublisher bulk-indexes results and indexes a run summary
type SearchPublisher struct {
	client       datastore.OpenSearchClient
	resultsIndex string
	runsIndex    string
}

func NewSearchPublisher(client datastore.OpenSearchClient, index string) *SearchPublisher {
	index = datastore.PrefixedIndex(index)
	return &SearchPublisher{client: client, resultsIndex: index, runsIndex: index + "-runs"}
}

func (p *SearchPublisher) Name() string { return "opensearch" }

func (p *SearchPublisher) Publish(ctx context.Context, report types.Report) error {
	docs := documentsFor(report)
	bulk := make([]datastore.BulkDoc, 0, len(docs))
	for i, doc := range docs {
		bulk = append(bulk, datastore.BulkDoc{
			ID:     fmt.Sprintf("%s-%d", report.RunID, i),
			Body:   doc,
			Action: "index",
		})
	}
	if err := p.client.BulkIndex(ctx, p.resultsIndex, bulk); err != nil {
		return fmt.Errorf("failed to index results: %w", err)
	}

	run := runDocument{
		RunID:     report.RunID,
		Timestamp: report.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		BaseURL:   report.BaseURL,
		Duration:  report.Duration.Milliseconds(),
		Summary:   report.Summary,
	}
	if err := p.client.Index(ctx, p.runsIndex, report.RunID, run); err != nil {
		return fmt.Errorf("failed to index run summary: %w", err)
	}
	return nil
}

func (p *SearchPublisher) Close() error {
	return p.client.Close()
}
