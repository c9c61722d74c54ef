package local

import (
	"context"
	"errors"

	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/stores"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// Store is the part of the row store the data source needs.
type Store interface {
	SaveCompanyInfo(ctx context.Context, info *stores.CompanyInfoEntity) error
	GetCompanyInfo(ctx context.Context) (*stores.CompanyInfoEntity, error)
	ReplaceLaunches(ctx context.Context, launches []stores.LaunchEntity) error
	ListLaunches(ctx context.Context) ([]stores.LaunchEntity, error)
	Subscribe(table stores.Table) (<-chan struct{}, func())
}

// DataSource reads and writes the cached snapshots.
type DataSource struct {
	store  Store
	logger *telemetry.Logger
}

// NewDataSource creates a data source over store. A nil logger discards logs.
func NewDataSource(store Store, logger *telemetry.Logger) *DataSource {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &DataSource{
		store:  store,
		logger: logger.NewComponentLogger("local"),
	}
}

type watchConfig struct {
	once bool
}

// WatchOption customizes a Watch sequence.
type WatchOption func(*watchConfig)

// Once limits a sequence to the current snapshot. When nothing is stored the
// company sequence ends without an emission.
func Once() WatchOption {
	return func(c *watchConfig) { c.once = true }
}

// WatchCompanyInfo yields the stored company record and every later one.
func (d *DataSource) WatchCompanyInfo(ctx context.Context, opts ...WatchOption) <-chan outcome.Outcome[spacex.CompanyInfo] {
	return watch(ctx, d, stores.TableCompanyInfo, func(ctx context.Context) (snapshot[spacex.CompanyInfo], error) {
		e, err := d.store.GetCompanyInfo(ctx)
		if errors.Is(err, stores.ErrNotFound) {
			return snapshot[spacex.CompanyInfo]{}, nil
		}
		if err != nil {
			return snapshot[spacex.CompanyInfo]{}, err
		}
		return snapshot[spacex.CompanyInfo]{value: CompanyInfoFromEntity(*e), found: true}, nil
	}, nil, opts)
}

// WatchLaunches yields the stored launch list and every later one. An empty
// table yields a cache-miss failure and ends the sequence.
func (d *DataSource) WatchLaunches(ctx context.Context, opts ...WatchOption) <-chan outcome.Outcome[[]spacex.Launch] {
	return watch(ctx, d, stores.TableLaunches, func(ctx context.Context) (snapshot[[]spacex.Launch], error) {
		rows, err := d.store.ListLaunches(ctx)
		if err != nil {
			return snapshot[[]spacex.Launch]{}, err
		}
		if len(rows) == 0 {
			return snapshot[[]spacex.Launch]{}, nil
		}
		return snapshot[[]spacex.Launch]{value: LaunchesFromEntities(rows), found: true}, nil
	}, outcome.NewCacheMissFailure, opts)
}

// SaveCompanyInfo replaces the stored company record.
func (d *DataSource) SaveCompanyInfo(ctx context.Context, info spacex.CompanyInfo) error {
	e := CompanyInfoToEntity(info)
	if err := d.store.SaveCompanyInfo(ctx, &e); err != nil {
		return outcome.NewStorageFailure("", err).WithResource(spacex.ResourceCompanyInfo)
	}
	return nil
}

// SaveLaunches replaces the stored launch list.
func (d *DataSource) SaveLaunches(ctx context.Context, launches []spacex.Launch) error {
	if err := d.store.ReplaceLaunches(ctx, LaunchesToEntities(launches)); err != nil {
		return outcome.NewStorageFailure("", err).WithResource(spacex.ResourceLaunches)
	}
	return nil
}

type snapshot[T any] struct {
	value T
	found bool
}

// watch drives a sequence for one table. read loads the current snapshot;
// onEmpty, when set, turns an empty table into a terminal failure.
func watch[T any](
	ctx context.Context,
	d *DataSource,
	table stores.Table,
	read func(context.Context) (snapshot[T], error),
	onEmpty func() *outcome.Failure,
	opts []WatchOption,
) <-chan outcome.Outcome[T] {
	var cfg watchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out := make(chan outcome.Outcome[T])
	resource := string(table)
	logger := d.logger.WithResource(resource)

	go func() {
		defer close(out)

		// Subscribe before the first read so a write in between is not lost.
		changes, cancel := d.store.Subscribe(table)
		defer cancel()

		send := func(o outcome.Outcome[T]) bool {
			select {
			case out <- o:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			snap, err := read(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				logger.WithError(err).Warn("reading cached snapshot failed")
				send(outcome.Fail[T](outcome.NewStorageFailure("", err).WithResource(resource)))
				return
			case snap.found:
				if !send(outcome.Success(snap.value)) {
					return
				}
			case onEmpty != nil:
				logger.Debug("no cached snapshot")
				send(outcome.Fail[T](onEmpty().WithResource(resource)))
				return
			}

			if cfg.once {
				return
			}

			select {
			case _, ok := <-changes:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
