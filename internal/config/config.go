// Package config loads the autoblog configuration.
package config

import (
	"fmt"
	"sort"
	"time"

	infraconfig "github.com/hayan-web/health-auto-blog-sub000/infrastructure/config"
	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	infraredis "github.com/hayan-web/health-auto-blog-sub000/infrastructure/redis"
	"github.com/hayan-web/health-auto-blog-sub000/internal/blacklist"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/selector"
)

// Default configuration values.
const (
	defaultConfigPath   = "config.yml"
	defaultStatePath    = "data/state.json"
	defaultServerPort   = 8095
	defaultLockTTL      = 10 * time.Minute
	defaultLockWait     = 30 * time.Second
	defaultShutdownWait = 10 * time.Second
	hoursPerDay         = 24
)

var (
	defaultImageStyles   = []string{"photo", "watercolor", "flat_illustration", "3d_render"}
	defaultThumbVariants = []string{"question", "number", "benefit", "warning"}
	defaultSubtopics     = []string{"sleep", "diet", "cleaning", "money", "organizing"}
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Selection SelectionConfig `yaml:"selection"`
	Cooldown  CooldownConfig  `yaml:"cooldown"`
	Blacklist BlacklistConfig `yaml:"blacklist"`
	Budget    BudgetConfig    `yaml:"budget"`
	Topics    TopicsConfig    `yaml:"topics"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Redis     RedisConfig     `yaml:"redis"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Server    ServerConfig    `yaml:"server"`
	Logging   logger.Config   `yaml:"logging"`
}

// ServiceConfig holds process-level settings.
type ServiceConfig struct {
	StatePath string `env:"AUTOBLOG_STATE_PATH" yaml:"state_path"`
	Debug     bool   `env:"APP_DEBUG"           yaml:"debug"`
}

// SelectionConfig tunes the selectors. Nil probabilities take their defaults
// so that an explicit 0 is honoured.
type SelectionConfig struct {
	ExploreRate   *float64           `yaml:"explore_rate"`
	TopicWeight   *float64           `yaml:"topic_weight"`
	UCBEpsilon    *float64           `yaml:"ucb_epsilon"`
	LifeEpsilon   *float64           `yaml:"life_epsilon"`
	RPM           map[string]float64 `yaml:"rpm"`
	ImageStyles   []string           `env:"AUTOBLOG_IMAGE_STYLES"   yaml:"image_styles"`
	ThumbVariants []string           `env:"AUTOBLOG_THUMB_VARIANTS" yaml:"thumb_variants"`
	Subtopics     []string           `env:"AUTOBLOG_SUBTOPICS"      yaml:"life_subtopics"`
}

// CooldownConfig holds the cooldown thresholds.
type CooldownConfig struct {
	MinImpressions int64   `yaml:"min_impressions"`
	CTRFloor       float64 `yaml:"ctr_floor"`
	Days           int64   `yaml:"days"`
	ExtraPerStrike int64   `yaml:"extra_per_strike"`
}

// BlacklistConfig holds blacklist settings.
type BlacklistConfig struct {
	// DefaultDays must be at least 1; nil takes blacklist.DefaultDays.
	DefaultDays *int `yaml:"default_days"`
}

// BudgetConfig holds the guard ceilings. Zero or negative disables a check
// once defaults have been applied; leave a field out to get its default.
type BudgetConfig struct {
	MaxPostsPerDay     *int64   `yaml:"max_posts_per_day"`
	MaxImagesPerDay    *int64   `yaml:"max_images_per_day"`
	MaxUSDPerMonth     *float64 `yaml:"max_usd_per_month"`
	MaxAffiliatePerDay *int64   `yaml:"max_affiliate_per_day"`
}

// ScheduleEntry starts topic at FromHour (KST) until the next entry.
type ScheduleEntry struct {
	FromHour int    `yaml:"from_hour"`
	Topic    string `yaml:"topic"`
}

// TopicsConfig maps the hour of day to a topic.
type TopicsConfig struct {
	Schedule []ScheduleEntry `yaml:"schedule"`
}

// TrackingConfig holds the click-URL signing secret. Empty disables
// signature checks on ingest.
type TrackingConfig struct {
	HMACSecret string `env:"AUTOBLOG_TRACKING_SECRET" yaml:"hmac_secret"`
}

// RedisConfig configures the run lock backend.
type RedisConfig struct {
	infraredis.Config `yaml:",inline"`
	LockTTL           time.Duration `env:"AUTOBLOG_LOCK_TTL"  yaml:"lock_ttl"`
	LockWait          time.Duration `env:"AUTOBLOG_LOCK_WAIT" yaml:"lock_wait"`
}

// MetricsConfig configures metric export for batch commands.
type MetricsConfig struct {
	PushgatewayURL string `env:"AUTOBLOG_PUSHGATEWAY_URL" yaml:"pushgateway_url"`
}

// ServerConfig configures the read-only API.
type ServerConfig struct {
	Port            int           `env:"AUTOBLOG_PORT" yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Load loads configuration from path. A missing file yields defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = infraconfig.GetConfigPath(defaultConfigPath)
	}
	cfg, err := infraconfig.LoadWithDefaults[Config](path, setDefaults)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setSelectionDefaults(&cfg.Selection)
	setCooldownDefaults(&cfg.Cooldown)
	setBlacklistDefaults(&cfg.Blacklist)
	setBudgetDefaults(&cfg.Budget)
	setTopicsDefaults(&cfg.Topics)
	setRedisDefaults(&cfg.Redis)
	setServerDefaults(&cfg.Server)
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.StatePath == "" {
		svc.StatePath = defaultStatePath
	}
}

func setSelectionDefaults(sel *SelectionConfig) {
	if sel.ExploreRate == nil {
		sel.ExploreRate = ptr(selector.DefaultExploreRate)
	}
	if sel.TopicWeight == nil {
		sel.TopicWeight = ptr(selector.DefaultTopicWeight)
	}
	if sel.UCBEpsilon == nil {
		sel.UCBEpsilon = ptr(selector.DefaultUCBEpsilon)
	}
	if sel.LifeEpsilon == nil {
		sel.LifeEpsilon = ptr(selector.DefaultGreedyEpsilon)
	}
	rpm := selector.DefaultRPMByTopic()
	for topic, w := range sel.RPM {
		rpm[topic] = w
	}
	sel.RPM = rpm
	if len(sel.ImageStyles) == 0 {
		sel.ImageStyles = append([]string(nil), defaultImageStyles...)
	}
	if len(sel.ThumbVariants) == 0 {
		sel.ThumbVariants = append([]string(nil), defaultThumbVariants...)
	}
	if len(sel.Subtopics) == 0 {
		sel.Subtopics = append([]string(nil), defaultSubtopics...)
	}
}

func setCooldownDefaults(cd *CooldownConfig) {
	if cd.MinImpressions == 0 {
		cd.MinImpressions = cooldown.DefaultMinImpressions
	}
	if cd.CTRFloor == 0 {
		cd.CTRFloor = cooldown.DefaultCTRFloor
	}
	if cd.Days == 0 {
		cd.Days = cooldown.DefaultCooldownDays
	}
	if cd.ExtraPerStrike == 0 {
		cd.ExtraPerStrike = cooldown.DefaultExtraPerStrike
	}
}

func setBlacklistDefaults(bl *BlacklistConfig) {
	if bl.DefaultDays == nil {
		bl.DefaultDays = ptr(blacklist.DefaultDays)
	}
}

func setBudgetDefaults(b *BudgetConfig) {
	if b.MaxPostsPerDay == nil {
		b.MaxPostsPerDay = ptr(int64(budget.DefaultMaxPostsPerDay))
	}
	if b.MaxImagesPerDay == nil {
		b.MaxImagesPerDay = ptr(int64(budget.DefaultMaxImagesPerDay))
	}
	if b.MaxUSDPerMonth == nil {
		b.MaxUSDPerMonth = ptr(budget.DefaultMaxUSDPerMonth)
	}
	if b.MaxAffiliatePerDay == nil {
		b.MaxAffiliatePerDay = ptr(int64(budget.DefaultMaxAffiliatePerDay))
	}
}

func setTopicsDefaults(tp *TopicsConfig) {
	if len(tp.Schedule) == 0 {
		tp.Schedule = []ScheduleEntry{
			{FromHour: 0, Topic: "health"},
			{FromHour: 11, Topic: "it"},
			{FromHour: 17, Topic: "life"},
		}
	}
	sort.SliceStable(tp.Schedule, func(i, j int) bool {
		return tp.Schedule[i].FromHour < tp.Schedule[j].FromHour
	})
}

func setRedisDefaults(r *RedisConfig) {
	if r.LockTTL == 0 {
		r.LockTTL = defaultLockTTL
	}
	if r.LockWait == 0 {
		r.LockWait = defaultLockWait
	}
}

func setServerDefaults(s *ServerConfig) {
	if s.Port == 0 {
		s.Port = defaultServerPort
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = defaultShutdownWait
	}
}

func ptr[T any](v T) *T {
	return &v
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidateRequired("service.state_path", c.Service.StatePath); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := infraconfig.ValidateProbability("cooldown.ctr_floor", c.Cooldown.CTRFloor); err != nil {
		return err
	}
	if c.Cooldown.MinImpressions < 0 || c.Cooldown.Days < 0 || c.Cooldown.ExtraPerStrike < 0 {
		return &infraconfig.ValidationError{Field: "cooldown", Message: "values must not be negative"}
	}
	if d := c.Blacklist.DefaultDays; d != nil && *d < 1 {
		return &infraconfig.ValidationError{Field: "blacklist.default_days", Message: "must be at least 1"}
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := infraconfig.ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return infraconfig.ValidateLogFormat(c.Logging.Format)
}

func (c *Config) validateSelection() error {
	sel := c.Selection
	probabilities := []struct {
		field string
		value *float64
	}{
		{"selection.explore_rate", sel.ExploreRate},
		{"selection.topic_weight", sel.TopicWeight},
		{"selection.ucb_epsilon", sel.UCBEpsilon},
		{"selection.life_epsilon", sel.LifeEpsilon},
	}
	for _, p := range probabilities {
		if p.value == nil {
			continue
		}
		if err := infraconfig.ValidateProbability(p.field, *p.value); err != nil {
			return err
		}
	}
	for topic, rpm := range sel.RPM {
		if err := infraconfig.ValidateNonNegative("selection.rpm."+topic, rpm); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateSchedule() error {
	for _, e := range c.Topics.Schedule {
		if e.FromHour < 0 || e.FromHour >= hoursPerDay {
			return &infraconfig.ValidationError{Field: "topics.schedule", Message: fmt.Sprintf("from_hour %d out of range", e.FromHour)}
		}
		if e.Topic == "" {
			return &infraconfig.ValidationError{Field: "topics.schedule", Message: "topic is required"}
		}
	}
	return nil
}

// Blend returns the weighted-blend selector settings.
func (c *Config) Blend() selector.Blend {
	b := selector.NewBlend()
	b.ExploreRate = *c.Selection.ExploreRate
	b.TopicWeight = *c.Selection.TopicWeight
	return b
}

// UCB returns the combo selector settings.
func (c *Config) UCB() selector.UCB {
	u := selector.NewUCB()
	u.Epsilon = *c.Selection.UCBEpsilon
	u.RPM = c.Selection.RPM
	return u
}

// Greedy returns the life sub-topic selector settings.
func (c *Config) Greedy() selector.Greedy {
	g := selector.NewGreedy()
	g.Epsilon = *c.Selection.LifeEpsilon
	return g
}

// CooldownRules returns the engine thresholds.
func (c *Config) CooldownRules() cooldown.Rules {
	return cooldown.Rules{
		MinImpressions: c.Cooldown.MinImpressions,
		CTRFloor:       c.Cooldown.CTRFloor,
		CooldownDays:   c.Cooldown.Days,
		ExtraPerStrike: c.Cooldown.ExtraPerStrike,
	}
}

// Ceilings returns the budget limits.
func (c *Config) Ceilings() budget.Ceilings {
	return budget.Ceilings{
		MaxPostsPerDay:     *c.Budget.MaxPostsPerDay,
		MaxImagesPerDay:    *c.Budget.MaxImagesPerDay,
		MaxUSDPerMonth:     *c.Budget.MaxUSDPerMonth,
		MaxAffiliatePerDay: *c.Budget.MaxAffiliatePerDay,
	}
}
