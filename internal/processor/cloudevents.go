package processor

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	ceevent "github.com/cloudevents/sdk-go/v2/event"

	"github.com/fr0stylo/ingestq/internal/app/domain"
	"github.com/fr0stylo/ingestq/internal/app/ports"
)

const (
	// RecordEventType is the CloudEvents type sent for each record id.
	RecordEventType = "dev.ingestq.record.requested.v1"
	// SignatureHeader carries the hex HMAC-SHA256 of the request body.
	SignatureHeader = "X-Ingestq-Signature"

	defaultEventSource = "ingestq/scheduler"
	defaultTimeout     = 10 * time.Second
)

// RecordPayload is the data of one record event.
type RecordPayload struct {
	RecordID    int64  `json:"record_id"`
	BatchID     string `json:"batch_id"`
	IngestionID string `json:"ingestion_id"`
	Priority    string `json:"priority"`
	Seq         int    `json:"seq"`
}

// CloudEvents delivers one structured-mode CloudEvent per record id to an
// HTTP endpoint. Any non-2xx response is a failed call.
type CloudEvents struct {
	Endpoint   string
	Source     string
	Secret     string
	Timeout    time.Duration
	HTTPClient *http.Client
	now        func() time.Time
}

// NewCloudEvents creates an HTTP CloudEvents processor.
func NewCloudEvents(endpoint, secret string, timeout time.Duration) (*CloudEvents, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("cloudevents endpoint is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &CloudEvents{
		Endpoint:   endpoint,
		Source:     defaultEventSource,
		Secret:     strings.TrimSpace(secret),
		Timeout:    timeout,
		HTTPClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

func (p *CloudEvents) Process(ctx context.Context, batch domain.Batch, recordID int64) error {
	body, err := p.buildEvent(batch, recordID)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", ceevent.ApplicationCloudEventsJSON)
	if p.Secret != "" {
		req.Header.Set(SignatureHeader, sign(body, p.Secret))
	}

	resp, err := p.client().Do(req)
	if err != nil {
		return fmt.Errorf("send record %d: %w", recordID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("record %d rejected: status=%s body=%s", recordID, resp.Status, strings.TrimSpace(string(payload)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (p *CloudEvents) buildEvent(batch domain.Batch, recordID int64) ([]byte, error) {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	source := p.Source
	if source == "" {
		source = defaultEventSource
	}

	event := ceevent.New()
	event.SetID(batch.ID + "/" + strconv.FormatInt(recordID, 10))
	event.SetSource(source)
	event.SetType(RecordEventType)
	event.SetSubject(strconv.FormatInt(recordID, 10))
	event.SetTime(now().UTC())
	if err := event.SetData(ceevent.ApplicationJSON, RecordPayload{
		RecordID:    recordID,
		BatchID:     batch.ID,
		IngestionID: batch.IngestionID,
		Priority:    string(batch.Priority),
		Seq:         batch.Seq,
	}); err != nil {
		return nil, fmt.Errorf("encode record event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record event: %w", err)
	}
	return json.Marshal(event)
}

func (p *CloudEvents) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ ports.RecordProcessor = (*CloudEvents)(nil)
