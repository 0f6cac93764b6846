// Package feeds fetches colors from the remote ambient and accent sources.
// Every fetch either fully succeeds with a normalized color or returns an
// error and leaves nothing behind; the scheduler simply retries on its next
// tick.
package feeds

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hauslicht/cheerstrip/internal/colorx"
	"github.com/hauslicht/cheerstrip/internal/logging"
)

var logger = logging.New("feeds")

// maxBodySize bounds how much of a feed response we are willing to read.
// The ambient JSON is a few hundred bytes, an accent payload is 7.
const maxBodySize = 4096

// Client wraps an http.Client with the bounded timeout every feed fetch
// must carry so a dead feed cannot starve the render loop.
type Client struct {
	http *http.Client
}

// NewClient builds a feed client. The timeout applies per request.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// FetchAmbient polls the ambient JSON feed and returns the normalized color
// held in the named field. The field may carry a palette name or a hex code;
// unknown names resolve to neutral gray rather than an error, matching the
// feed's own convention.
func (c *Client) FetchAmbient(ctx context.Context, url, field string) (colorx.RGB, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return colorx.RGB{}, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return colorx.RGB{}, errors.Wrap(err, "malformed ambient payload")
	}

	raw, ok := payload[field]
	if !ok {
		return colorx.RGB{}, errors.Errorf("ambient payload has no %q field", field)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return colorx.RGB{}, errors.Wrapf(err, "ambient field %q is not a string", field)
	}

	parsed := colorx.Parse(text)
	if parsed.Kind == colorx.Invalid {
		logger.With("text", text).Warn("unknown ambient color, using gray")
	}
	return colorx.Normalize(parsed.Color), nil
}

// FetchAccent polls an accent feed, which serves a bare 6-hex-digit code
// with an optional # prefix. Anything else counts as a failed fetch.
func (c *Client) FetchAccent(ctx context.Context, url string) (colorx.RGB, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return colorx.RGB{}, err
	}

	rgb, err := colorx.ParseHex(string(body))
	if err != nil {
		return colorx.RGB{}, errors.Wrap(err, "malformed accent payload")
	}
	return colorx.Normalize(rgb), nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building feed request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "feed request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "reading feed body")
	}
	return body, nil
}
