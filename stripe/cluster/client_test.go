package cluster

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stripefs/stripefs/stripe/storage"
)

func TestCorruptedBlocksDeduplicates(t *testing.T) {
	blk := storage.ExtendedBlock{PoolId: "BP-1", BlockId: 10, Generation: 1}
	report := NewCorruptedBlocks()
	assert.True(t, report.IsEmpty())

	report.Add(blk, "peer-a:9866")
	report.Add(blk, "peer-a:9866")
	report.Add(blk, "peer-b:9866")

	assert.False(t, report.IsEmpty())
	assert.Len(t, report.Entries(), 2)
}

func TestHTTPClientPostsReport(t *testing.T) {
	var received []CorruptionRecord
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	report := NewCorruptedBlocks()
	report.Add(storage.ExtendedBlock{PoolId: "BP-1", BlockId: 99, Generation: 3}, "peer-a:9866")

	client := NewHTTPClient(server.URL)
	require.NoError(t, client.ReportCorruptedBlocks(context.Background(), report))

	require.Len(t, received, 1)
	assert.Equal(t, uint64(99), received[0].BlockId)
	assert.Equal(t, "peer-a:9866", received[0].Peer)
}

func TestHTTPClientSkipsEmptyReport(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1/unreachable")
	assert.NoError(t, client.ReportCorruptedBlocks(context.Background(), NewCorruptedBlocks()))
}
