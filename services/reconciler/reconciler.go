// Package reconciler periodically recomputes every project's progress from
// its tasks, repairing drift left by deletions and failed rollups.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// DefaultSchedule runs a reconciliation every ten minutes.
const DefaultSchedule = "*/10 * * * *"

// Elector decides which reconciler instance does the work.
type Elector interface {
	AcquireOrRenew(ctx context.Context) (bool, error)
	Resign(ctx context.Context) error
}

// ProjectLister returns the ids of every project.
type ProjectLister interface {
	IDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// Recomputer rewrites one project's progress.
type Recomputer interface {
	Recompute(ctx context.Context, projectID primitive.ObjectID) (int, error)
}

// Reconciler fires on a cron schedule. Only the elected leader recomputes;
// leadership is renewed on a heartbeat between runs.
type Reconciler struct {
	schedule  cron.Schedule
	elector   Elector
	projects  ProjectLister
	rollup    Recomputer
	heartbeat time.Duration
	now       func() time.Time
	logger    *slog.Logger

	leader bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

func WithLogger(l *slog.Logger) Option      { return func(r *Reconciler) { r.logger = l } }
func WithHeartbeat(d time.Duration) Option  { return func(r *Reconciler) { r.heartbeat = d } }
func WithClock(now func() time.Time) Option { return func(r *Reconciler) { r.now = now } }

// New parses expr as a standard five-field cron expression (descriptors such
// as "@hourly" are accepted too).
func New(expr string, elector Elector, projects ProjectLister, rollup Recomputer, opts ...Option) (*Reconciler, error) {
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	r := &Reconciler{
		schedule:  schedule,
		elector:   elector,
		projects:  projects,
		rollup:    rollup,
		heartbeat: 10 * time.Second,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.heartbeat <= 0 {
		r.heartbeat = 10 * time.Second
	}
	return r, nil
}

// Run reconciles once immediately, then on every scheduled time. Blocks
// until ctx is cancelled, then gives up leadership.
func (r *Reconciler) Run(ctx context.Context) {
	heartbeat := time.NewTicker(r.heartbeat)
	defer heartbeat.Stop()

	r.tick(ctx)

	for {
		next := r.schedule.Next(r.now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			r.resign()
			return
		case <-heartbeat.C:
			timer.Stop()
			r.elect(ctx)
		case <-timer.C:
			r.tick(ctx)
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	if !r.elect(ctx) {
		return
	}
	n, err := r.RunOnce(ctx)
	if err != nil {
		telemetry.ReconcilerRunsTotal.WithLabelValues("error").Inc()
		r.logger.Error("reconciliation finished with errors",
			slog.Int("recomputed", n),
			slog.String("error", err.Error()),
		)
		return
	}
	telemetry.ReconcilerRunsTotal.WithLabelValues("ok").Inc()
	r.logger.Info("reconciliation finished", slog.Int("recomputed", n))
}

// elect acquires or renews leadership and reports whether this instance leads.
func (r *Reconciler) elect(ctx context.Context) bool {
	ok, err := r.elector.AcquireOrRenew(ctx)
	if err != nil {
		r.logger.Error("leader election", slog.String("error", err.Error()))
		ok = false
	}
	if ok != r.leader {
		r.logger.Info("reconciler leadership changed", slog.Bool("leader", ok))
	}
	r.leader = ok
	if ok {
		telemetry.ReconcilerIsLeader.Set(1)
	} else {
		telemetry.ReconcilerIsLeader.Set(0)
		if err == nil {
			telemetry.ReconcilerRunsTotal.WithLabelValues("follower").Inc()
		}
	}
	return ok
}

func (r *Reconciler) resign() {
	if !r.leader {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.elector.Resign(ctx); err != nil {
		r.logger.Warn("resign leadership", slog.String("error", err.Error()))
	}
	r.leader = false
	telemetry.ReconcilerIsLeader.Set(0)
}

// RunOnce recomputes every project and returns how many succeeded. A failing
// project does not stop the others; all failures are returned together.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	ids, err := r.projects.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}

	var errs []error
	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		progress, err := r.rollup.Recompute(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		done++
		telemetry.ReconcilerProjectsRecomputed.Inc()
		r.logger.Debug("project reconciled",
			slog.String("project_id", id.Hex()),
			slog.Int("progress", progress),
		)
	}
	return done, errors.Join(errs...)
}

// Solo is an Elector for single-instance deployments without Redis.
type Solo struct{}

func (Solo) AcquireOrRenew(context.Context) (bool, error) { return true, nil }
func (Solo) Resign(context.Context) error                 { return nil }
