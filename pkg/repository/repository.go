package repository

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rocketscience/rocketscience/pkg/local"
	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/remote"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// LocalSource is the cache the repository writes through and falls back to.
// *local.DataSource implements it.
type LocalSource interface {
	WatchCompanyInfo(ctx context.Context, opts ...local.WatchOption) <-chan outcome.Outcome[spacex.CompanyInfo]
	WatchLaunches(ctx context.Context, opts ...local.WatchOption) <-chan outcome.Outcome[[]spacex.Launch]
	SaveCompanyInfo(ctx context.Context, info spacex.CompanyInfo) error
	SaveLaunches(ctx context.Context, launches []spacex.Launch) error
}

// Repository is the sync coordinator. It is safe for concurrent use.
type Repository struct {
	fetcher remote.Fetcher
	local   LocalSource

	follow         bool
	coalesce       bool
	persistTimeout time.Duration
	onPersistError func(resource string, err error)

	group singleflight.Group

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	events  *telemetry.EventPublisher
}

// New creates a repository over fetcher and cache.
func New(fetcher remote.Fetcher, cache LocalSource, opts ...Option) *Repository {
	r := &Repository{
		fetcher: fetcher,
		local:   cache,
		follow:  true,
		logger:  telemetry.NopLogger(),
		tracer:  telemetry.NopTracer(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CompanyInfo synchronizes the company record.
func (r *Repository) CompanyInfo(ctx context.Context) <-chan outcome.Outcome[spacex.CompanyInfo] {
	return run(ctx, r, r.companyInfoResource(), identity[spacex.CompanyInfo])
}

// Launches synchronizes the launch list.
func (r *Repository) Launches(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
	return run(ctx, r, r.launchesResource(), identity[[]spacex.Launch])
}

// FilteredLaunches synchronizes the launch list and applies criteria to every
// list it emits. The cache always receives the unfiltered list.
func (r *Repository) FilteredLaunches(ctx context.Context, criteria spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch] {
	return run(ctx, r, r.launchesResource(), criteria.Apply)
}

// resource describes how to fetch, persist and read back one data set.
type resource[T any] struct {
	name  string
	fetch func(context.Context) outcome.Outcome[T]
	save  func(context.Context, T) error
	watch func(context.Context, ...local.WatchOption) <-chan outcome.Outcome[T]
	size  func(T) int
}

func (r *Repository) companyInfoResource() resource[spacex.CompanyInfo] {
	return resource[spacex.CompanyInfo]{
		name:  spacex.ResourceCompanyInfo,
		fetch: r.fetcher.CompanyInfo,
		save:  r.local.SaveCompanyInfo,
		watch: r.local.WatchCompanyInfo,
		size:  func(spacex.CompanyInfo) int { return 1 },
	}
}

func (r *Repository) launchesResource() resource[[]spacex.Launch] {
	return resource[[]spacex.Launch]{
		name:  spacex.ResourceLaunches,
		fetch: r.fetcher.Launches,
		save:  r.local.SaveLaunches,
		watch: r.local.WatchLaunches,
		size:  func(l []spacex.Launch) int { return len(l) },
	}
}

func identity[T any](v T) (T, error) { return v, nil }

// fetchResult is a fetch outcome that may be shared by coalesced requests.
// persisted makes sure only one of them writes it through.
type fetchResult[T any] struct {
	outcome   outcome.Outcome[T]
	persisted *sync.Once
}
