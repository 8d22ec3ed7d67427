// Package ingest replays tracking events from an access log into the ledger.
package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/clickurl"
)

// Kind is the event type.
type Kind string

// Event kinds.
const (
	KindImpression Kind = "imp"
	KindClick      Kind = "click"
)

// ErrMalformed marks a line that cannot be parsed.
var ErrMalformed = errors.New("malformed tracking line")

// Event is one parsed tracking line.
type Event struct {
	Time      time.Time
	Kind      Kind
	Params    clickurl.TrackingParams
	Signature string
}

const fieldCount = 3

// ParseLine parses "RFC3339-time<TAB>imp|click<TAB>query". The query may be
// a bare query string or anything containing '?', such as a request path.
func ParseLine(line string) (Event, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < fieldCount {
		return Event{}, fmt.Errorf("%w: want %d tab-separated fields, got %d", ErrMalformed, fieldCount, len(fields))
	}

	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[0]))
	if err != nil {
		return Event{}, fmt.Errorf("%w: time: %w", ErrMalformed, err)
	}

	kind, err := parseKind(fields[1])
	if err != nil {
		return Event{}, err
	}

	raw := strings.TrimSpace(fields[2])
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Event{}, fmt.Errorf("%w: query: %w", ErrMalformed, err)
	}

	params := clickurl.ParamsFromValues(values)
	if params.ImageStyle == "" && params.ThumbVariant == "" && params.Keyword == "" && params.Subtopic == "" {
		return Event{}, fmt.Errorf("%w: no tracked entity in query", ErrMalformed)
	}

	return Event{Time: ts, Kind: kind, Params: params, Signature: values.Get(clickurl.ParamSig)}, nil
}

func parseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "imp", "impression":
		return KindImpression, nil
	case "click":
		return KindClick, nil
	default:
		return "", fmt.Errorf("%w: unknown event %q", ErrMalformed, s)
	}
}
