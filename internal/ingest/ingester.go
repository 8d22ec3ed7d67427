package ingest

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/clickurl"
	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/planner"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

// Result labels for the ingest metric.
const (
	resultAccepted  = "accepted"
	resultRejected  = "rejected"
	resultMalformed = "malformed"
	resultDuplicate = "duplicate"
	kindUnknown     = "unknown"
)

const maxLineBytes = 1 << 20

// Summary counts what a run did.
type Summary struct {
	Lines       int      `json:"lines"`
	Impressions int      `json:"impressions"`
	Clicks      int      `json:"clicks"`
	Rejected    int      `json:"rejected"`
	Malformed   int      `json:"malformed"`
	Duplicates  int      `json:"duplicates"`
	Blocked     []string `json:"blocked"`
}

// Ingester applies events to a state document.
type Ingester struct {
	signer  *clickurl.Signer
	engine  *cooldown.Engine
	metrics *telemetry.Metrics
	log     logger.Logger
}

// New creates an ingester. With a nil signer every signature is accepted.
func New(signer *clickurl.Signer, engine *cooldown.Engine, metrics *telemetry.Metrics, log logger.Logger) *Ingester {
	if log == nil {
		log = logger.NewNop()
	}
	return &Ingester{signer: signer, engine: engine, metrics: metrics, log: log}
}

// Run reads events from r, records them, recomputes the touched scores and
// applies the cooldown rules to the touched entities at now. Malformed and
// badly signed lines are counted and skipped.
//
// Events at or before the stored cursor of source were applied by an earlier
// run and are skipped, so a log may be ingested again as it grows. The cursor
// assumes the log is appended in time order. An empty source disables the
// cursor.
func (in *Ingester) Run(ctx context.Context, source string, r io.Reader, doc *state.Document, now time.Time) (Summary, error) {
	var sum Summary
	touched := newTouchSet()

	var cur state.Cursor
	if source != "" {
		cur = doc.Cursor(source)
	}
	pos := newPosition(cur)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sum.Lines++

		ev, err := ParseLine(line)
		if err != nil {
			sum.Malformed++
			in.metrics.RecordIngestEvent(kindUnknown, resultMalformed)
			in.log.Debug("Skipping malformed tracking line", logger.Int("line", sum.Lines), logger.Error(err))
			continue
		}

		if pos.replayed(ev.Time) {
			sum.Duplicates++
			in.metrics.RecordIngestEvent(string(ev.Kind), resultDuplicate)
			continue
		}
		pos.advance(ev.Time)

		if !in.verify(ev) {
			sum.Rejected++
			in.metrics.RecordIngestEvent(string(ev.Kind), resultRejected)
			in.log.Warn("Rejected tracking event with bad signature",
				logger.Int("line", sum.Lines),
				logger.String("post", ev.Params.PostID),
			)
			continue
		}

		if err = in.apply(doc, ev, touched); err != nil {
			return sum, err
		}
		in.metrics.RecordIngestEvent(string(ev.Kind), resultAccepted)
		if ev.Kind == KindClick {
			sum.Clicks++
		} else {
			sum.Impressions++
		}
	}
	if err := scanner.Err(); err != nil {
		return sum, err
	}
	if source != "" && !pos.next.IsZero() {
		doc.SetCursor(source, pos.next)
	}

	for _, t := range touched.targets {
		_ = doc.UpdateScore(t.ns, t.key...)
	}

	obs := make([]cooldown.Observation, 0, len(touched.keys))
	for _, key := range touched.keys {
		obs = append(obs, doc.Observation(key))
	}
	for _, key := range planner.ApplyCooldowns(in.engine, doc, obs, in.metrics, now) {
		sum.Blocked = append(sum.Blocked, key.String())
	}

	in.log.Info("Tracking events ingested",
		logger.Int("lines", sum.Lines),
		logger.Int("impressions", sum.Impressions),
		logger.Int("clicks", sum.Clicks),
		logger.Int("rejected", sum.Rejected),
		logger.Int("malformed", sum.Malformed),
		logger.Int("duplicates", sum.Duplicates),
		logger.Strings("blocked", sum.Blocked),
	)
	return sum, nil
}

func (in *Ingester) verify(ev Event) bool {
	if in.signer == nil {
		return true
	}
	return ev.Signature != "" && in.signer.Verify(ev.Params.Message(), ev.Signature)
}

func (in *Ingester) apply(doc *state.Document, ev Event, touched *touchSet) error {
	record := doc.RecordImpression
	if ev.Kind == KindClick {
		record = doc.RecordClick
	}

	p := ev.Params
	for _, t := range targetsFor(p) {
		if err := record(t.ns, ev.Time, t.key...); err != nil {
			return err
		}
		touched.add(t)
	}
	return nil
}

type target struct {
	ns  state.Namespace
	key []string
}

func targetsFor(p clickurl.TrackingParams) []target {
	var out []target
	if p.ImageStyle != "" {
		out = append(out, target{state.NSImage, []string{p.ImageStyle}})
		if p.Topic != "" {
			out = append(out, target{state.NSTopicImage, []string{p.Topic, p.ImageStyle}})
		}
	}
	if p.ThumbVariant != "" {
		out = append(out, target{state.NSThumb, []string{p.ThumbVariant}})
		if p.Topic != "" {
			out = append(out, target{state.NSTopicThumb, []string{p.Topic, p.ThumbVariant}})
		}
	}
	if p.Keyword != "" {
		out = append(out, target{state.NSKeyword, []string{p.Keyword}})
	}
	if p.Subtopic != "" {
		out = append(out, target{state.NSLifeSubtopic, []string{p.Subtopic}})
	}
	return out
}

// touchSet remembers touched entities in first-seen order.
type touchSet struct {
	seen    map[string]bool
	targets []target
	keys    []cooldown.Key
}

func newTouchSet() *touchSet {
	return &touchSet{seen: map[string]bool{}}
}

func (s *touchSet) add(t target) {
	id := string(t.ns) + "\x00" + strings.Join(t.key, "\x00")
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.targets = append(s.targets, t)

	switch t.ns {
	case state.NSImage:
		s.keys = append(s.keys, cooldown.ImageKey(t.key[0]))
	case state.NSThumb:
		s.keys = append(s.keys, cooldown.ThumbKey(t.key[0]))
	case state.NSTopicImage:
		s.keys = append(s.keys, cooldown.TopicImageKey(t.key[0], t.key[1]))
	case state.NSTopicThumb:
		s.keys = append(s.keys, cooldown.TopicThumbKey(t.key[0], t.key[1]))
	}
}

// position tracks the stored cursor and the cursor this run will leave.
type position struct {
	cur      state.Cursor
	next     state.Cursor
	atCursor int64
}

func newPosition(cur state.Cursor) *position {
	return &position{cur: cur, next: cur}
}

// replayed reports whether an event stamped t was applied by an earlier run.
func (p *position) replayed(t time.Time) bool {
	if p.cur.IsZero() {
		return false
	}
	switch {
	case t.Before(p.cur.Time):
		return true
	case t.Equal(p.cur.Time):
		p.atCursor++
		return p.atCursor <= p.cur.Seen
	default:
		return false
	}
}

func (p *position) advance(t time.Time) {
	switch {
	case p.next.IsZero() || t.After(p.next.Time):
		p.next = state.Cursor{Time: t, Seen: 1}
	case t.Equal(p.next.Time):
		p.next.Seen++
	}
}
