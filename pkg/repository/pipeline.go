package repository

import (
	"context"
	"sync"

	"github.com/rocketscience/rocketscience/pkg/local"
	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// run starts one request for res and returns its result stream. transform is
// applied to every successful value before it is emitted.
func run[T, U any](ctx context.Context, r *Repository, res resource[T], transform func(T) (U, error)) <-chan outcome.Outcome[U] {
	out := make(chan outcome.Outcome[U])

	go func() {
		defer close(out)

		ctx, requestID := telemetry.WithRequestID(ctx)
		ctx, span := r.tracer.StartSyncSpan(ctx, res.name, requestID)
		defer span.End()
		defer r.metrics.TrackInflight()()

		logger := r.logger.WithRequestID(requestID).WithResource(res.name)
		_ = r.events.PublishSyncStarted(requestID, res.name)

		emit := func(o outcome.Outcome[U]) bool {
			if ctx.Err() != nil {
				return false
			}
			select {
			case out <- o:
				kind := telemetry.ResultSuccess
				if !o.OK() {
					kind = string(o.Kind())
				}
				r.metrics.RecordEmission(res.name, kind)
				return true
			case <-ctx.Done():
				return false
			}
		}

		fetched := fetchOnce(ctx, r, res)
		if ctx.Err() != nil {
			logger.Debug("request cancelled during fetch")
			return
		}

		if fetched.outcome.OK() {
			value := fetched.outcome.Value
			_ = r.events.PublishSyncSucceeded(requestID, res.name, res.size(value))
			span.SetAttributes(telemetry.AttrItemCount.Int(res.size(value)))

			emitted := apply(res.name, value, transform)
			if !emit(emitted) {
				return
			}
			if !emitted.OK() {
				// A payload the transform rejects must not replace the cached snapshot.
				logger.WithError(emitted.Failure).Warn("fetched snapshot rejected, cache left unchanged")
				telemetry.RecordError(span, emitted.Failure)
				return
			}
			fetched.persisted.Do(func() {
				persist(ctx, r, res, value, requestID, logger)
			})
			telemetry.RecordSuccess(span)
			return
		}

		failure := fetched.outcome.Failure
		span.SetAttributes(telemetry.AttrFailureKind.String(string(failure.Kind)))
		_ = r.events.PublishFetchFailed(requestID, res.name, string(failure.Kind), failure.Message)
		if !emit(outcome.Fail[U](failure)) {
			return
		}

		if !outcome.Recoverable(failure) {
			logger.WithError(failure).Warn("fetch failed, no fallback for this failure kind")
			telemetry.RecordError(span, failure)
			return
		}

		logger.WithError(failure).Info("fetch failed, serving cached snapshot")
		telemetry.AddEvent(span, "cache.fallback", telemetry.AttrFollow.Bool(r.follow))
		var opts []local.WatchOption
		if !r.follow {
			opts = append(opts, local.Once())
		}

		for cached := range res.watch(ctx, opts...) {
			var o outcome.Outcome[U]
			switch {
			case cached.OK():
				r.metrics.RecordFallback(res.name, telemetry.ResultSuccess)
				_ = r.events.PublishCacheRecovered(requestID, res.name)
				o = apply(res.name, cached.Value, transform)
			case outcome.IsCacheMiss(cached.Failure):
				r.metrics.RecordFallback(res.name, telemetry.ResultMiss)
				_ = r.events.PublishCacheMiss(requestID, res.name)
				o = outcome.Fail[U](cached.Failure)
			default:
				r.metrics.RecordFallback(res.name, telemetry.ResultFailure)
				logger.WithError(cached.Failure).Warn("reading cached snapshot failed")
				o = outcome.Fail[U](cached.Failure)
			}
			if !emit(o) {
				return
			}
		}
	}()

	return out
}

// fetchOnce calls the fetcher, joining an identical in-flight fetch when
// coalescing is enabled.
func fetchOnce[T any](ctx context.Context, r *Repository, res resource[T]) fetchResult[T] {
	if !r.coalesce {
		return fetchResult[T]{outcome: res.fetch(ctx), persisted: new(sync.Once)}
	}

	// The shared fetch outlives any single caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(res.name, func() (interface{}, error) {
		return fetchResult[T]{outcome: res.fetch(shared), persisted: new(sync.Once)}, nil
	})

	select {
	case v := <-ch:
		return v.Val.(fetchResult[T])
	case <-ctx.Done():
		f := outcome.NewNetworkFailure(outcome.DefaultNetworkMessage, ctx.Err()).WithResource(res.name)
		return fetchResult[T]{outcome: outcome.Fail[T](f), persisted: new(sync.Once)}
	}
}

// apply runs transform, turning its error into an unknown failure.
func apply[T, U any](name string, v T, transform func(T) (U, error)) outcome.Outcome[U] {
	u, err := transform(v)
	if err != nil {
		return outcome.Fail[U](outcome.NewUnknownFailure(err.Error(), err).WithResource(name))
	}
	return outcome.Success(u)
}

// persist writes value through to the cache. Failures are reported but never
// emitted. The write outlives the subscriber's context once the value has been
// delivered.
func persist[T any](ctx context.Context, r *Repository, res resource[T], value T, requestID string, logger *telemetry.Logger) {
	ctx = context.WithoutCancel(ctx)
	if r.persistTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.persistTimeout)
		defer cancel()
	}

	ctx, span := r.tracer.StartStoreSpan(ctx, res.name, "save")
	defer span.End()

	err := res.save(ctx, value)
	if err == nil {
		r.metrics.RecordStoreWrite(res.name, telemetry.ResultSuccess)
		telemetry.RecordSuccess(span)
		logger.Debugf("persisted %d %s item(s)", res.size(value), res.name)
		return
	}

	telemetry.RecordError(span, err)
	r.metrics.RecordStoreWrite(res.name, telemetry.ResultFailure)
	logger.WithError(err).Error("persisting fetched snapshot failed")
	_ = r.events.PublishStoreWriteFailed(requestID, res.name, err.Error())
	if r.onPersistError != nil {
		r.onPersistError(res.name, err)
	}
}
