package datastore

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/disaster37/opensearch/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingServer simulates the OpenSearch endpoints the client uses and keeps request bodies
type recordingServer struct {
	*httptest.Server
	mu         sync.Mutex
	bulkLines  []string
	indexed    map[string]string
	bulkErrors bool
}

func newRecordingServer() *recordingServer {
	rs := &recordingServer{indexed: make(map[string]string)}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.mu.Lock()
		defer rs.mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, "/_bulk"):
			scanner := bufio.NewScanner(r.Body)
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					rs.bulkLines = append(rs.bulkLines, line)
				}
			}
			if rs.bulkErrors {
				w.Write([]byte(`{"errors":true,"items":[{"index":{"_index":"x","_id":"1","status":400,"error":{"type":"mapper_parsing_exception"}}}]}`))
				return
			}
			w.Write([]byte(`{"errors":false}`))
		case strings.Contains(r.URL.Path, "/_doc/") && r.Method == http.MethodPut:
			var buf strings.Builder
			scanner := bufio.NewScanner(r.Body)
			for scanner.Scan() {
				buf.WriteString(scanner.Text())
			}
			rs.indexed[r.URL.Path] = buf.String()
			w.Write([]byte(`{"result":"created"}`))
		default:
			w.Write([]byte(`{"acknowledged":true}`))
		}
	}))
	return rs
}

func newMockClient(t *testing.T, rs *recordingServer) OpenSearchClient {
	t.Helper()
	client, err := NewOpenSearchClient(
		opensearch.SetURL(rs.URL),
		opensearch.SetHealthcheck(false),
		opensearch.SetSniff(false),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

type testDoc struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

func TestIndex(t *testing.T) {
	rs := newRecordingServer()
	defer rs.Close()
	client := newMockClient(t, rs)

	require.NoError(t, client.Index(context.Background(), "authsmoke-runs", "run-1", testDoc{Email: "a@test.com", Status: "PASS"}))

	body, ok := rs.indexed["/authsmoke-runs/_doc/run-1"]
	require.True(t, ok)
	var got testDoc
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "PASS", got.Status)
}

func TestBulkIndex(t *testing.T) {
	rs := newRecordingServer()
	defer rs.Close()
	client := newMockClient(t, rs)

	docs := []BulkDoc{
		{ID: "run-1-a", Body: testDoc{Email: "a@test.com", Status: "PASS"}, Action: "index"},
		{Body: testDoc{Email: "b@test.com", Status: "FAIL"}, Action: "create"},
	}
	require.NoError(t, client.BulkIndex(context.Background(), "authsmoke-results", docs))

	require.Len(t, rs.bulkLines, 4)
	assert.Contains(t, rs.bulkLines[0], `"_id":"run-1-a"`)
	assert.Contains(t, rs.bulkLines[0], `"index"`)
	assert.Contains(t, rs.bulkLines[2], `"create"`)
	var second testDoc
	require.NoError(t, json.Unmarshal([]byte(rs.bulkLines[3]), &second))
	assert.Equal(t, "b@test.com", second.Email)
}

func TestBulkIndexErrors(t *testing.T) {
	rs := newRecordingServer()
	defer rs.Close()
	client := newMockClient(t, rs)
	ctx := context.Background()

	require.NoError(t, client.BulkIndex(ctx, "authsmoke-results", nil))
	assert.Empty(t, rs.bulkLines, "empty bulk sends nothing")

	assert.Error(t, client.BulkIndex(ctx, "authsmoke-results", []BulkDoc{{Body: testDoc{}, Action: "delete"}}))

	rs.mu.Lock()
	rs.bulkErrors = true
	rs.mu.Unlock()
	assert.Error(t, client.BulkIndex(ctx, "authsmoke-results", []BulkDoc{{Body: testDoc{}}}))
}

func TestEncode(t *testing.T) {
	raw := json.RawMessage(`{"a":1}`)
	got, err := encode(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = encode(testDoc{Email: "x"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"x","status":""}`, string(got))
}

func TestPrefixedIndex(t *testing.T) {
	t.Setenv("SERVICE_HOME", t.TempDir())
	t.Setenv("ES_INDEX_PREFIX", "")
	t.Setenv("OPENSEARCH_INDEX_PREFIX", "")
	assert.Equal(t, "authsmoke-results", PrefixedIndex("authsmoke-results"))

	t.Setenv("OPENSEARCH_INDEX_PREFIX", "staging-")
	assert.Equal(t, "staging-authsmoke-results", PrefixedIndex("authsmoke-results"))

	t.Setenv("ES_INDEX_PREFIX", " prod- ")
	assert.Equal(t, "prod-authsmoke-results", PrefixedIndex("authsmoke-results"))
}
