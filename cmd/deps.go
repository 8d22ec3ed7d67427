package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/clickurl"
	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	infraredis "github.com/hayan-web/health-auto-blog-sub000/infrastructure/redis"
	"github.com/hayan-web/health-auto-blog-sub000/internal/config"
	"github.com/hayan-web/health-auto-blog-sub000/internal/lock"
	"github.com/hayan-web/health-auto-blog-sub000/internal/planner"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/telemetry"
)

// environment holds what the flags resolved to. The root PersistentPreRunE
// fills cfg and now; deps are built per command from it.
type environment struct {
	viper *viper.Viper
	cfg   *config.Config
	now   time.Time
}

// deps are the resolved dependencies of one command run.
type deps struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *telemetry.Metrics
	now     time.Time
}

// setup loads the configuration, applies flag overrides and stores the
// configured logger in the command context.
func (e *environment) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(e.viper.GetString(flagConfig))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if path := e.viper.GetString(flagState); path != "" {
		cfg.Service.StatePath = path
	}
	if e.viper.GetBool(flagDebug) {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	now := time.Now()
	if at := e.viper.GetString(flagAt); at != "" {
		if now, err = time.Parse(time.RFC3339, at); err != nil {
			return fmt.Errorf("parse --%s: %w", flagAt, err)
		}
	}

	e.cfg = cfg
	e.now = now
	cmd.SetContext(logger.WithContext(cmd.Context(), log.With(logger.String("state_path", cfg.Service.StatePath))))
	return nil
}

func (e *environment) deps(ctx context.Context, withRuntimeMetrics bool) (*deps, error) {
	if e.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return &deps{
		cfg:     e.cfg,
		log:     logger.FromContext(ctx),
		metrics: telemetry.NewMetrics(withRuntimeMetrics),
		now:     e.now,
	}, nil
}

func (d *deps) signer() *clickurl.Signer {
	if d.cfg.Tracking.HMACSecret == "" {
		return nil
	}
	return clickurl.NewSigner(d.cfg.Tracking.HMACSecret)
}

func (d *deps) planner() *planner.Planner {
	schedule := make(planner.Schedule, 0, len(d.cfg.Topics.Schedule))
	for _, e := range d.cfg.Topics.Schedule {
		schedule = append(schedule, planner.Slot{FromHour: e.FromHour, Topic: e.Topic})
	}

	opts := planner.Options{
		Blend:         d.cfg.Blend(),
		UCB:           d.cfg.UCB(),
		Greedy:        d.cfg.Greedy(),
		Rules:         d.cfg.CooldownRules(),
		Ceilings:      d.cfg.Ceilings(),
		Schedule:      schedule,
		ImageStyles:   d.cfg.Selection.ImageStyles,
		ThumbVariants: d.cfg.Selection.ThumbVariants,
		Subtopics:     d.cfg.Selection.Subtopics,
	}
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return planner.New(opts, rng, d.signer(), d.metrics, d.log)
}

// locker prefers Redis when an address is configured.
func (d *deps) locker(ctx context.Context) (lock.Locker, func(), error) {
	r := d.cfg.Redis
	if !r.Enabled() {
		return lock.NewFileLocker(d.cfg.Service.StatePath, r.LockTTL, r.LockWait, d.log), func() {}, nil
	}

	client, err := infraredis.NewClient(ctx, r.Config)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = client.Close() }
	return lock.NewRedisLocker(client, d.cfg.Service.StatePath, r.LockTTL, r.LockWait, d.log), closeFn, nil
}

// load reads the state without locking, for read-only commands.
func (d *deps) load() (*state.Document, error) {
	return state.Load(d.cfg.Service.StatePath)
}

// mutate runs fn under the run lock between a load and an atomic save. The
// document is only saved when fn succeeds.
func (d *deps) mutate(ctx context.Context, fn func(doc *state.Document) error) error {
	locker, closeFn, err := d.locker(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err = locker.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if rerr := locker.Release(context.WithoutCancel(ctx)); rerr != nil {
			d.log.Warn("Failed to release run lock", logger.Error(rerr))
		}
	}()

	doc, err := d.load()
	if err != nil {
		return err
	}
	if err = fn(doc); err != nil {
		return err
	}
	if err = state.Save(d.cfg.Service.StatePath, doc); err != nil {
		return err
	}
	d.log.Debug("State saved")
	return nil
}

// finish pushes metrics when a Pushgateway is configured and flushes logs.
func (d *deps) finish(ctx context.Context) {
	if err := d.metrics.Push(ctx, d.cfg.Metrics.PushgatewayURL); err != nil {
		d.log.Warn("Failed to push metrics", logger.Error(err))
	}
	_ = d.log.Sync()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
