package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/voldca/config"
	"github.com/vadiminshakov/voldca/internal/domain"
	"github.com/vadiminshakov/voldca/internal/services/executor"
)

// cycleRunner runs one purchase cycle for one asset.
type cycleRunner interface {
	Asset() string
	Run(ctx context.Context, force bool) domain.Outcome
}

type historyLoader interface {
	Load(ctx context.Context, asset string) ([]domain.TradeRecord, error)
}

// CycleReader reads back the decision journal.
type CycleReader interface {
	LastCycle(asset string) (domain.CycleEvent, bool, error)
}

// Bot runs the purchase cycle of every enabled asset.
type Bot struct {
	l        *zap.Logger
	runners  []cycleRunner
	history  historyLoader
	cycles   CycleReader
	parallel bool
	schedule string
	now      func() time.Time
}

// NewBot creates one executor per enabled asset.
func NewBot(l *zap.Logger, cfg config.Config, s *Services) (*Bot, error) {
	assets := cfg.EnabledAssets()
	if len(assets) == 0 {
		return nil, errors.New("no enabled assets")
	}

	deps := executor.Deps{
		Prices:   s.Prices,
		History:  s.History,
		Trader:   s.Trader,
		Store:    s.Store,
		Journal:  s.Journal,
		Notifier: s.Notifier,
	}

	runners := make([]cycleRunner, 0, len(assets))
	for _, a := range assets {
		e, err := executor.New(l, a, cfg.Quote, deps)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create executor for %s", a.Symbol)
		}
		runners = append(runners, e)
	}

	return newBot(l, runners, s.Store, s.Cycles, cfg.Parallel, cfg.Schedule), nil
}

func newBot(l *zap.Logger, runners []cycleRunner, h historyLoader, cycles CycleReader, parallel bool, schedule string) *Bot {
	return &Bot{
		l:        l,
		runners:  runners,
		history:  h,
		cycles:   cycles,
		parallel: parallel,
		schedule: schedule,
		now:      time.Now,
	}
}

// RunOnce runs every asset once and returns outcomes in asset order.
// A failure of one asset never stops the others.
func (b *Bot) RunOnce(ctx context.Context, force bool) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(b.runners))

	if !b.parallel {
		for i, r := range b.runners {
			outcomes[i] = r.Run(ctx, force)
		}
		return outcomes
	}

	// each goroutine owns its slot, and none returns an error so no asset cancels another
	g := new(errgroup.Group)
	for i, r := range b.runners {
		g.Go(func() error {
			outcomes[i] = r.Run(ctx, force)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Run executes the batch on the cron schedule until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(b.l))
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	_, err := c.AddFunc(b.schedule, func() {
		outcomes := b.RunOnce(ctx, false)
		if AnyFailed(outcomes) {
			b.l.Warn("batch finished with failures", zap.Int("assets", len(outcomes)))
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid schedule %q", b.schedule)
	}

	c.Start()
	b.l.Info("daemon started", zap.String("schedule", b.schedule), zap.Int("assets", len(b.runners)))

	<-ctx.Done()
	<-c.Stop().Done()
	b.l.Info("daemon stopped")

	return nil
}

// Stats reports trade history, recent activity and the last journaled cycle of every asset.
// An unreadable journal leaves the last cycle out.
func (b *Bot) Stats(ctx context.Context) ([]domain.AssetReport, error) {
	now := b.now()
	out := make([]domain.AssetReport, 0, len(b.runners))
	for _, r := range b.runners {
		records, err := b.history.Load(ctx, r.Asset())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %s history", r.Asset())
		}
		out = append(out, domain.NewAssetReport(r.Asset(), records, b.lastCycle(r.Asset()), now))
	}
	return out, nil
}

func (b *Bot) lastCycle(asset string) *domain.CycleEvent {
	if b.cycles == nil {
		return nil
	}
	ev, ok, err := b.cycles.LastCycle(asset)
	if err != nil {
		b.l.Warn("failed to read decision journal", zap.String("asset", asset), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &ev
}

// AnyFailed reports whether any outcome failed.
func AnyFailed(outcomes []domain.Outcome) bool {
	for _, o := range outcomes {
		if o.Failed() {
			return true
		}
	}
	return false
}
