// Package remote fetches profile backup documents over HTTP.
//
// The client performs a single GET with no retries and no timeout of its
// own; retry policy and cancellation belong to the caller's context. The
// response is validated against a JSON Schema before decoding so malformed
// documents are rejected with a reason instead of producing half-shaped
// backups.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/laminate-dev/laminate/internal/profile"
)

// maxDocumentSize caps how much of a response body is read.
const maxDocumentSize = 1 << 20

// backupSchema is the shape contract for remote backup documents: a profile
// backup must declare its type and carry object-valued profile metadata and
// settings values.
const backupSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["type", "profile", "values"],
	"properties": {
		"version": {"type": "integer"},
		"type": {"const": "profile"},
		"profile": {"type": "object"},
		"toggled": {"type": "boolean"},
		"values": {"type": "object"}
	}
}`

var schema = jsonschema.MustCompileString("backup.schema.json", backupSchema)

// Ensure interface compliance
var _ profile.Fetcher = (*Client)(nil)

// Client fetches and validates backup documents.
type Client struct {
	hc  *http.Client
	log *slog.Logger
}

// NewClient creates a client. A nil hc uses http.DefaultClient; a nil log
// falls back to slog.Default.
func NewClient(hc *http.Client, log *slog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{hc: hc, log: log}
}

// Fetch retrieves url and decodes it as a backup document. Any transport,
// decode or schema failure is returned as an error; callers treat all of
// them uniformly as a failed update.
func (c *Client) Fetch(ctx context.Context, url string) (*profile.Backup, error) {
	reqID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	c.log.Debug("fetching profile document", "url", url, "request_id", reqID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("validating %s: %w", url, err)
	}

	var doc profile.Backup
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", url, err)
	}

	c.log.Debug("profile document fetched",
		"url", url, "request_id", reqID, "values", len(doc.Values))
	return &doc, nil
}
