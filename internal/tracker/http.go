package tracker

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/globeandmail/enrich/internal/ports"
	"github.com/globeandmail/enrich/pkg/log"
)

// failureEvent is the JSON body posted to the monitoring endpoint.
type failureEvent struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Stream      string `json:"stream"`
	Attempt     int    `json:"attempt"`
	ByteSize    int    `json:"byte_size"`
	OccurredAt  string `json:"occurred_at"`
}

// HTTPTracker posts failure notifications as JSON to a monitoring endpoint.
type HTTPTracker struct {
	client  ports.HTTPClient
	url     string
	authKey string
	logger  log.Logger
}

// NewHTTPTracker creates a tracker posting to url. authKey, when non-empty,
// is sent as a bearer token.
func NewHTTPTracker(client ports.HTTPClient, url, authKey string, logger log.Logger) *HTTPTracker {
	return &HTTPTracker{
		client:  client,
		url:     url,
		authKey: authKey,
		logger:  logger,
	}
}

// NotifyFailure posts one failure event. Failures to deliver the
// notification itself are logged at debug and otherwise ignored.
func (t *HTTPTracker) NotifyFailure(category, description, stream string, attempt, byteSize int) {
	body, err := json.Marshal(failureEvent{
		Category:    category,
		Description: description,
		Stream:      stream,
		Attempt:     attempt,
		ByteSize:    byteSize,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		t.logger.Debug("tracker: marshal failure event", log.Err(err))
		return
	}

	req, err := http.NewRequest(http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		t.logger.Debug("tracker: build request", log.Err(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if t.authKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.authKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("tracker: post failure event", log.Err(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		t.logger.Debug("tracker: monitoring endpoint rejected event",
			log.Int("status", resp.StatusCode),
		)
	}
}
