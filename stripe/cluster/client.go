package cluster

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/golang/glog"
	jsoniter "github.com/json-iterator/go"

	"github.com/stripefs/stripefs/stripe/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is how a storage node talks back to the cluster controller.
type Client interface {
	ReportCorruptedBlocks(ctx context.Context, report *CorruptedBlocks) error
}

// HTTPClient posts corruption reports to the controller endpoint, retrying
// transient failures with exponential backoff.
type HTTPClient struct {
	reportUrl  string
	httpClient *http.Client
}

func NewHTTPClient(reportUrl string) *HTTPClient {
	return &HTTPClient{
		reportUrl: reportUrl,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *HTTPClient) ReportCorruptedBlocks(ctx context.Context, report *CorruptedBlocks) error {
	if report.IsEmpty() {
		return nil
	}
	records := report.Entries()
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal corruption report: %v", err)
	}

	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 100 * time.Millisecond
	exponentialBackoff.MaxElapsedTime = 20 * time.Second

	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.reportUrl, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("controller returned %s", resp.Status)
		}
		return nil
	}, backoff.WithContext(exponentialBackoff, ctx))
	if err != nil {
		return fmt.Errorf("report %d corrupted blocks: %v", len(records), err)
	}

	stats.CorruptedBlocksReported.Add(float64(len(records)))
	glog.V(1).Infof("reported %d corrupted block replicas to controller", len(records))
	return nil
}
