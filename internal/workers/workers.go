// Package workers runs the scheduled per-organization jobs: monthly rent
// generation and late-fee assessment.
package workers

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"propertyhub/internal/engine/payments"
	"propertyhub/internal/engine/webhooks"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/platform/models"
)

const (
	JobRentGeneration = "rent_generation"
	JobLateFees       = "late_fees"
)

// OrgSource lists the organizations jobs run for and opens their databases.
type OrgSource interface {
	ListAccessible(ctx context.Context) ([]*models.Organization, error)
	TenantDB(org *models.Organization) (*sql.DB, error)
}

// Job does one organization's share of a run and reports how many payments it created.
type Job func(ctx context.Context, svc *payments.Service) (int, error)

type Summary struct {
	Job           string `json:"job"`
	Organizations int    `json:"organizations"`
	Failed        int    `json:"failed"`
	Created       int    `json:"created"`
}

type Runner struct {
	orgs       OrgSource
	dispatcher *webhooks.Dispatcher
	metrics    *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
}

func NewRunner(orgs OrgSource, dispatcher *webhooks.Dispatcher, m *metrics.Metrics, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{orgs: orgs, dispatcher: dispatcher, metrics: m, loc: loc, now: time.Now}
}

func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

func (r *Runner) clock() time.Time {
	return r.now().In(r.loc)
}

// Run applies job to every accessible organization. A failing organization is
// logged and counted; it never stops the others.
func (r *Runner) Run(ctx context.Context, name string, job Job) (Summary, error) {
	summary := Summary{Job: name}
	orgs, err := r.orgs.ListAccessible(ctx)
	if err != nil {
		return summary, err
	}

	for _, org := range orgs {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Organizations++

		n, err := r.runOne(ctx, org, job)
		if err != nil {
			summary.Failed++
			r.count(name, "failed")
			log.Error().Err(err).Str("job", name).Str("org_id", org.ID).Str("org_slug", org.Slug).Msg("Scheduled job failed for organization")
			continue
		}
		summary.Created += n
		r.count(name, "ok")
	}

	log.Info().
		Str("job", name).
		Int("organizations", summary.Organizations).
		Int("failed", summary.Failed).
		Int("created", summary.Created).
		Msg("Scheduled job finished")
	return summary, nil
}

func (r *Runner) runOne(ctx context.Context, org *models.Organization, job Job) (int, error) {
	db, err := r.orgs.TenantDB(org)
	if err != nil {
		return 0, err
	}
	var events payments.EventPublisher
	if r.dispatcher != nil {
		events = r.dispatcher.Bind(org.ID, db)
	}
	svc := payments.NewService(db, events, r.metrics).WithClock(r.clock)
	return job(ctx, svc)
}

func (r *Runner) count(job, result string) {
	if r.metrics != nil {
		r.metrics.JobRuns.WithLabelValues(job, result).Inc()
	}
}

// GenerateRent creates the current month's rent in every organization.
func (r *Runner) GenerateRent(ctx context.Context) (Summary, error) {
	now := r.clock()
	return r.Run(ctx, JobRentGeneration, func(ctx context.Context, svc *payments.Service) (int, error) {
		res, err := svc.GenerateMonthlyRent(ctx, int(now.Month()), now.Year())
		if err != nil {
			return 0, err
		}
		return len(res.Created), nil
	})
}

// AssessLateFees charges late fees as of today in every organization.
func (r *Runner) AssessLateFees(ctx context.Context) (Summary, error) {
	return r.Run(ctx, JobLateFees, func(ctx context.Context, svc *payments.Service) (int, error) {
		res, err := svc.AssessLateFees(ctx, "")
		if err != nil {
			return 0, err
		}
		return len(res.Created), nil
	})
}

// Schedule registers both jobs on c using the configured cron specs.
func (r *Runner) Schedule(ctx context.Context, c *cron.Cron, cfg config.SchedulerConfig) error {
	jobs := []struct {
		spec string
		run  func(context.Context) (Summary, error)
		name string
	}{
		{cfg.RentGenerationSchedule, r.GenerateRent, JobRentGeneration},
		{cfg.LateFeeSchedule, r.AssessLateFees, JobLateFees},
	}
	for _, j := range jobs {
		j := j
		if _, err := c.AddFunc(j.spec, func() {
			if _, err := j.run(ctx); err != nil {
				log.Error().Err(err).Str("job", j.name).Msg("Scheduled job aborted")
			}
		}); err != nil {
			return err
		}
		log.Info().Str("job", j.name).Str("spec", j.spec).Msg("Job scheduled")
	}
	return nil
}
