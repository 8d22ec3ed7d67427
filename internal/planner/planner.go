// Package planner turns the ledger, guards and suppression books into a
// concrete publishing plan, and records the outcome once a post is live.
package planner

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/clickurl"
	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/selector"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

// Strategy chooses how image style and thumbnail variant are picked.
type Strategy string

// Strategies.
const (
	// StrategyUCB picks image and thumbnail jointly with the UCB combo.
	StrategyUCB Strategy = "ucb"
	// StrategyBlend picks each independently with the weighted blend.
	StrategyBlend Strategy = "blend"
)

// ParseStrategy validates s. Empty means StrategyUCB.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyUCB:
		return StrategyUCB, nil
	case StrategyBlend:
		return StrategyBlend, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidInput, s)
	}
}

// LifeTopic is the topic whose posts carry a sub-topic.
const LifeTopic = "life"

// Selection dimensions, used as metric labels.
const (
	DimensionImage    = "image"
	DimensionThumb    = "thumb"
	DimensionKeyword  = "keyword"
	DimensionSubtopic = "subtopic"
)

// Options configures a Planner.
type Options struct {
	Blend         selector.Blend
	UCB           selector.UCB
	Greedy        selector.Greedy
	Rules         cooldown.Rules
	Ceilings      budget.Ceilings
	Schedule      Schedule
	ImageStyles   []string
	ThumbVariants []string
	Subtopics     []string
}

// Planner is not safe for concurrent use; it owns its random source.
type Planner struct {
	opts    Options
	engine  *cooldown.Engine
	guard   *budget.Guard
	signer  *clickurl.Signer
	metrics *telemetry.Metrics
	log     logger.Logger
	rng     *rand.Rand
}

// New creates a planner. signer and metrics may be nil.
func New(opts Options, rng *rand.Rand, signer *clickurl.Signer, metrics *telemetry.Metrics, log logger.Logger) *Planner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Planner{
		opts:    opts,
		engine:  cooldown.NewEngine(opts.Rules, log),
		guard:   budget.NewGuard(opts.Ceilings),
		signer:  signer,
		metrics: metrics,
		log:     log,
		rng:     rng,
	}
}

// Guard returns the budget guard.
func (p *Planner) Guard() *budget.Guard {
	return p.guard
}

// Engine returns the cooldown engine.
func (p *Planner) Engine() *cooldown.Engine {
	return p.engine
}

// TopicFor returns the scheduled topic at now.
func (p *Planner) TopicFor(now time.Time) string {
	return p.opts.Schedule.TopicFor(now)
}

// Request asks for a plan.
type Request struct {
	// Topic overrides the schedule when set.
	Topic string
	// Keywords are candidates; blacklisted ones are dropped. Empty means the
	// plan carries no keyword.
	Keywords []string
	// PostID is embedded in the tracking query; generated when empty.
	PostID   string
	Strategy Strategy
	Now      time.Time
}

// Plan is the outcome of Plan. When Allowed is false only Reason is set.
type Plan struct {
	Allowed       bool     `json:"allowed"`
	Reason        string   `json:"reason"`
	PostID        string   `json:"post_id,omitempty"`
	Topic         string   `json:"topic,omitempty"`
	Keyword       string   `json:"keyword,omitempty"`
	ImageStyle    string   `json:"image_style,omitempty"`
	ThumbVariant  string   `json:"thumb_variant,omitempty"`
	Subtopic      string   `json:"subtopic,omitempty"`
	Strategy      Strategy `json:"strategy,omitempty"`
	Explored      bool     `json:"explored"`
	TrackingQuery string   `json:"tracking_query,omitempty"`
}

// Plan runs the hard guard, the advisory guard, the keyword blacklist, the
// cooldown filter and the selectors, in that order. A hard-guard breach is
// returned as an error wrapping domain.ErrBudgetExceeded; an advisory breach
// yields a plan with Allowed false. doc is not modified.
func (p *Planner) Plan(doc *state.Document, req Request) (*Plan, error) {
	now := req.Now

	if err := p.guard.CheckLimits(doc.Budget, now); err != nil {
		var exceeded *budget.BudgetExceededError
		if errors.As(err, &exceeded) {
			p.metrics.RecordBudgetDenial(exceeded.Guard)
		}
		p.log.Warn("Hard budget limit reached, skipping run", logger.Error(err))
		return nil, err
	}

	if v := p.guard.AdvisoryViolation(doc.Budget, now); v != nil {
		p.metrics.RecordBudgetDenial(v.Guard)
		_, reason := p.guard.CanPublish(doc.Budget, now)
		p.log.Info("Publishing deferred by budget guard", logger.String("reason", reason))
		return &Plan{Allowed: false, Reason: reason}, nil
	}

	topic := req.Topic
	if topic == "" {
		topic = p.TopicFor(now)
	}
	strategy := req.Strategy
	if strategy == "" {
		strategy = StrategyUCB
	}

	plan := &Plan{Allowed: true, Reason: budget.ReasonOK, Topic: topic, Strategy: strategy}

	keyword, err := p.pickKeyword(doc, req.Keywords, now)
	if err != nil {
		return nil, err
	}
	plan.Keyword = keyword

	images := p.eligible(doc, p.opts.ImageStyles, topic, cooldown.KindImage, cooldown.KindTopicImage, now)
	thumbs := p.eligible(doc, p.opts.ThumbVariants, topic, cooldown.KindThumb, cooldown.KindTopicThumb, now)

	if err = p.pickVisuals(doc, plan, images, thumbs); err != nil {
		return nil, err
	}

	if topic == LifeTopic {
		sub, serr := p.opts.Greedy.Select(p.rng, p.opts.Subtopics, doc.LifeSubtopic)
		if serr != nil {
			return nil, serr
		}
		plan.Subtopic = sub
		p.metrics.RecordSelection(DimensionSubtopic, sub)
	}

	plan.PostID = req.PostID
	if plan.PostID == "" {
		plan.PostID = uuid.NewString()
	}
	plan.TrackingQuery = p.trackingQuery(plan)

	p.log.Info("Plan selected",
		logger.String("topic", plan.Topic),
		logger.String("keyword", plan.Keyword),
		logger.String("image_style", plan.ImageStyle),
		logger.String("thumb_variant", plan.ThumbVariant),
		logger.String("subtopic", plan.Subtopic),
		logger.String("strategy", string(plan.Strategy)),
		logger.Bool("explored", plan.Explored),
	)
	return plan, nil
}

func (p *Planner) pickVisuals(doc *state.Document, plan *Plan, images, thumbs []string) error {
	switch plan.Strategy {
	case StrategyBlend:
		img, err := p.opts.Blend.Select(p.rng, images, doc.ImageStats, doc.TopicStyleStats.Lookup(plan.Topic))
		if err != nil {
			return err
		}
		tv, err := p.opts.Blend.Select(p.rng, thumbs, doc.ThumbStats, doc.TopicThumbStats.Lookup(plan.Topic))
		if err != nil {
			return err
		}
		plan.ImageStyle, plan.ThumbVariant = img, tv
	default:
		combo, err := p.opts.UCB.SelectCombo(p.rng, selector.ComboInput{
			Topic:        plan.Topic,
			Images:       images,
			Thumbs:       thumbs,
			GlobalImages: doc.ImageStats,
			TopicImages:  doc.TopicStyleStats.Lookup(plan.Topic),
			GlobalThumbs: doc.ThumbStats,
			TopicThumbs:  doc.TopicThumbStats.Lookup(plan.Topic),
		})
		if err != nil {
			return err
		}
		plan.ImageStyle, plan.ThumbVariant, plan.Explored = combo.ImageStyle, combo.ThumbVariant, combo.Explored
	}

	p.metrics.RecordSelection(DimensionImage, plan.ImageStyle)
	p.metrics.RecordSelection(DimensionThumb, plan.ThumbVariant)
	return nil
}

// pickKeyword drops blacklisted keywords and picks among the rest with the
// epsilon-greedy selector over keyword_stats.
func (p *Planner) pickKeyword(doc *state.Document, keywords []string, now time.Time) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}

	eligible := doc.Blacklist.Filter(keywords, now)
	if dropped := len(keywords) - len(eligible); dropped > 0 {
		p.log.Debug("Blacklisted keywords skipped", logger.Int("count", dropped))
	}
	if len(eligible) == 0 {
		return "", fmt.Errorf("%w: all %d keywords are blacklisted", domain.ErrNoEligibleKeyword, len(keywords))
	}

	kw, err := p.opts.Greedy.Select(p.rng, eligible, doc.KeywordStats)
	if err != nil {
		return "", err
	}
	p.metrics.RecordSelection(DimensionKeyword, kw)
	return kw, nil
}

// eligible removes candidates blocked globally or for topic. When every
// candidate is blocked the full list is returned so a post can still go out.
func (p *Planner) eligible(doc *state.Document, candidates []string, topic string, global, scoped cooldown.Kind, now time.Time) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		g := cooldown.Key{Kind: global, ID: c}
		s := cooldown.Key{Kind: scoped, Topic: topic, ID: c}
		if doc.Cooldowns.IsBlocked(g, now) || doc.Cooldowns.IsBlocked(s, now) {
			p.log.Debug("Candidate in cooldown", logger.String("kind", string(global)), logger.String("id", c))
			continue
		}
		out = append(out, c)
	}

	if len(out) == 0 && len(candidates) > 0 {
		p.log.Warn("Every candidate is in cooldown, ignoring cooldowns",
			logger.String("kind", string(global)),
			logger.String("topic", topic),
		)
		return candidates
	}
	return out
}

func (p *Planner) trackingQuery(plan *Plan) string {
	params := clickurl.TrackingParams{
		PostID:       plan.PostID,
		Topic:        plan.Topic,
		ImageStyle:   plan.ImageStyle,
		ThumbVariant: plan.ThumbVariant,
		Keyword:      plan.Keyword,
		Subtopic:     plan.Subtopic,
	}
	if p.signer == nil {
		return params.Values().Encode()
	}
	return p.signer.SignedQuery(params)
}
