package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stripefs/stripefs/stripe/reconstruction"
	"github.com/stripefs/stripefs/stripe/util"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	worker := reconstruction.NewWorker(util.GetViper(), nil, nil, "test-node")
	t.Cleanup(worker.Shutdown)

	router := mux.NewRouter()
	NewReconstructionServer(router, worker)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func TestReconstructHandlerAcceptsBatch(t *testing.T) {
	ts := newTestServer(t)

	// a zero length group is accepted and dropped by the worker
	body := `[{"poolId":"BP-1","blockId":4096,"generation":1,"numBytes":0,
		"dataUnits":6,"parityUnits":3,"cellSize":1048576,
		"liveIndices":[],"sources":[],"targets":[],"targetStorageClasses":[]}]`
	resp, err := http.Post(ts.URL+"/reconstruct", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestReconstructHandlerRejectsMalformedBatch(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/reconstruct", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
