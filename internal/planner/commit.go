package planner

import (
	"fmt"
	"time"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

// Outcome describes a post that was published.
type Outcome struct {
	Topic        string
	ImageStyle   string
	ThumbVariant string
	Keyword      string
	Subtopic     string
	// Images is the number of images generated for the post.
	Images int64
	// SpendUSD is the generation cost of the post.
	SpendUSD float64
	// Affiliate is set when the post carries an affiliate block.
	Affiliate bool
	// Impressions, when positive, are credited to every dimension the post used.
	Impressions int64
}

// Receipt reports what Commit recorded.
type Receipt struct {
	AffiliateRecorded bool `json:"affiliate_recorded"`
	AffiliateDenied   bool `json:"affiliate_denied"`
}

// Commit records a published post: advisory usage, the hard-guard post count
// and spend, the affiliate counter, and optional impressions.
func (p *Planner) Commit(doc *state.Document, out Outcome, now time.Time) (Receipt, error) {
	if out.Topic == "" || out.ImageStyle == "" || out.ThumbVariant == "" {
		return Receipt{}, fmt.Errorf("%w: topic, image style and thumbnail variant are required", domain.ErrInvalidInput)
	}
	if out.Images < 0 || out.SpendUSD < 0 || out.Impressions < 0 {
		return Receipt{}, fmt.Errorf("%w: counts must not be negative", domain.ErrInvalidInput)
	}

	doc.Budget.RecordUsage(1, out.Images, out.SpendUSD, now)
	doc.Budget.IncrementPostCount(now)
	doc.Budget.AddSpend(out.SpendUSD, now)

	var receipt Receipt
	if out.Affiliate {
		if p.guard.CanInsertAffiliate(doc.Budget, now) {
			doc.Budget.RecordAffiliate(now)
			receipt.AffiliateRecorded = true
		} else {
			receipt.AffiliateDenied = true
			p.metrics.RecordBudgetDenial(budget.GuardAffiliate)
			p.log.Warn("Affiliate daily cap reached, not counted", logger.String("topic", out.Topic))
		}
	}

	if out.Impressions > 0 {
		if err := addImpressions(doc, out, now); err != nil {
			return receipt, err
		}
		rescore(doc, out)
	}

	p.log.Info("Post committed",
		logger.String("topic", out.Topic),
		logger.String("image_style", out.ImageStyle),
		logger.String("thumb_variant", out.ThumbVariant),
		logger.Int64("images", out.Images),
		logger.Float64("spend_usd", out.SpendUSD),
		logger.Bool("affiliate", receipt.AffiliateRecorded),
	)
	return receipt, nil
}

func addImpressions(doc *state.Document, out Outcome, now time.Time) error {
	for _, t := range touched(out) {
		if err := doc.AddImpressions(t.ns, out.Impressions, now, t.key...); err != nil {
			return err
		}
	}
	return nil
}

func rescore(doc *state.Document, out Outcome) {
	for _, t := range touched(out) {
		_ = doc.UpdateScore(t.ns, t.key...)
	}
}

type target struct {
	ns  state.Namespace
	key []string
}

func touched(out Outcome) []target {
	targets := []target{
		{state.NSImage, []string{out.ImageStyle}},
		{state.NSThumb, []string{out.ThumbVariant}},
		{state.NSTopicImage, []string{out.Topic, out.ImageStyle}},
		{state.NSTopicThumb, []string{out.Topic, out.ThumbVariant}},
	}
	if out.Keyword != "" {
		targets = append(targets, target{state.NSKeyword, []string{out.Keyword}})
	}
	if out.Subtopic != "" {
		targets = append(targets, target{state.NSLifeSubtopic, []string{out.Subtopic}})
	}
	return targets
}

// Sweep applies the cooldown rules to every recorded entity and returns the
// newly blocked keys.
func (p *Planner) Sweep(doc *state.Document, now time.Time) []cooldown.Key {
	return ApplyCooldowns(p.engine, doc, doc.CooldownObservations(), p.metrics, now)
}

// ApplyCooldowns runs engine over observations and updates the metrics.
func ApplyCooldowns(engine *cooldown.Engine, doc *state.Document, obs []cooldown.Observation, m *telemetry.Metrics, now time.Time) []cooldown.Key {
	blocked := engine.Apply(doc.Cooldowns, obs, now)
	for _, key := range blocked {
		m.RecordCooldown(string(key.Kind))
	}
	m.SetBlockedEntities(doc.Cooldowns.ActiveCount(now))
	return blocked
}
