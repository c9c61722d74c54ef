package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a diagnostic record of something the sync layer did.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	RequestID string                 `json:"request_id,omitempty"`
	Resource  string                 `json:"resource,omitempty"`
	Message   string                 `json:"message"`
	Level     string                 `json:"level"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Event types published by the coordinator.
const (
	EventTypeSyncStarted      = "sync.started"
	EventTypeSyncSucceeded    = "sync.succeeded"
	EventTypeFetchFailed      = "fetch.failed"
	EventTypeCacheRecovered   = "cache.recovered"
	EventTypeCacheMiss        = "cache.miss"
	EventTypeStoreWriteFailed = "store.write_failed"
)

// Event severity levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// ErrEventBufferFull is returned by Publish when the async buffer is full and
// the event was dropped.
var ErrEventBufferFull = errors.New("event buffer full, event dropped")

// EventSubscriber handles a delivered event. Subscribers run on the
// publisher's delivery goroutine and must not block.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher fans diagnostic events out to subscribers.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	filters     []EventFilter
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	ep := &EventPublisher{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.MinLevel != "" {
		ep.AddFilter(FilterByLevel(cfg.MinLevel))
	}

	if cfg.EnableAsync {
		ep.buffer = make(chan Event, cfg.BufferSize)
		ep.wg.Add(1)
		go ep.processEvents()
	}

	return ep, nil
}

// Publish stamps the event and delivers it to subscribers. A nil or disabled
// publisher drops the event silently.
func (ep *EventPublisher) Publish(event Event) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Source == "" {
		event.Source = "repository"
	}

	ep.mu.RLock()
	for _, filter := range ep.filters {
		if !filter(event) {
			ep.mu.RUnlock()
			return nil
		}
	}
	ep.mu.RUnlock()

	if !ep.config.EnableAsync {
		ep.deliverEvent(event)
		return nil
	}

	select {
	case <-ep.ctx.Done():
		return fmt.Errorf("event publisher stopped")
	default:
	}

	select {
	case ep.buffer <- event:
		return nil
	default:
		return ErrEventBufferFull
	}
}

// PublishSyncStarted records the start of a coordinator request.
func (ep *EventPublisher) PublishSyncStarted(requestID, resource string) error {
	return ep.Publish(Event{
		Type:      EventTypeSyncStarted,
		RequestID: requestID,
		Resource:  resource,
		Message:   fmt.Sprintf("Sync of %s started", resource),
		Level:     EventLevelInfo,
	})
}

// PublishSyncSucceeded records a successful remote fetch.
func (ep *EventPublisher) PublishSyncSucceeded(requestID, resource string, items int) error {
	return ep.Publish(Event{
		Type:      EventTypeSyncSucceeded,
		RequestID: requestID,
		Resource:  resource,
		Message:   fmt.Sprintf("Fetched %d %s item(s) from remote", items, resource),
		Level:     EventLevelInfo,
		Data: map[string]interface{}{
			"items": items,
		},
	})
}

// PublishFetchFailed records a failed remote fetch.
func (ep *EventPublisher) PublishFetchFailed(requestID, resource, kind, reason string) error {
	return ep.Publish(Event{
		Type:      EventTypeFetchFailed,
		RequestID: requestID,
		Resource:  resource,
		Message:   fmt.Sprintf("Fetching %s failed: %s", resource, reason),
		Level:     EventLevelWarning,
		Data: map[string]interface{}{
			"kind":   kind,
			"reason": reason,
		},
	})
}

// PublishCacheRecovered records a snapshot served from the local store after a
// failed fetch.
func (ep *EventPublisher) PublishCacheRecovered(requestID, resource string) error {
	return ep.Publish(Event{
		Type:      EventTypeCacheRecovered,
		RequestID: requestID,
		Resource:  resource,
		Message:   fmt.Sprintf("Serving cached %s", resource),
		Level:     EventLevelInfo,
	})
}

// PublishCacheMiss records a fallback that found no cached data.
func (ep *EventPublisher) PublishCacheMiss(requestID, resource string) error {
	return ep.Publish(Event{
		Type:      EventTypeCacheMiss,
		RequestID: requestID,
		Resource:  resource,
		Message:   fmt.Sprintf("No cached %s available", resource),
		Level:     EventLevelWarning,
	})
}

// PublishStoreWriteFailed records a write-through that did not reach the store.
func (ep *EventPublisher) PublishStoreWriteFailed(requestID, resource, reason string) error {
	return ep.Publish(Event{
		Type:      EventTypeStoreWriteFailed,
		RequestID: requestID,
		Resource:  resource,
		Message:   fmt.Sprintf("Persisting %s failed: %s", resource, reason),
		Level:     EventLevelError,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// Subscribe adds a subscriber. A nil filter accepts every event.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	if ep == nil {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// AddFilter adds a filter applied to every published event.
func (ep *EventPublisher) AddFilter(filter EventFilter) {
	if ep == nil {
		return
	}
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.filters = append(ep.filters, filter)
}

// processEvents batches buffered events and delivers a batch when it is full,
// when the flush interval elapses, or on shutdown.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	var tick <-chan time.Time
	if ep.config.FlushInterval > 0 {
		ticker := time.NewTicker(ep.config.FlushInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	batch := make([]Event, 0, ep.config.MaxBatchSize)
	flush := func() {
		for _, event := range batch {
			ep.deliverEvent(event)
		}
		batch = batch[:0]
	}

	for {
		select {
		case event := <-ep.buffer:
			batch = append(batch, event)
			if len(batch) >= ep.config.MaxBatchSize {
				flush()
			}
		case <-tick:
			flush()
		case <-ep.ctx.Done():
			for {
				select {
				case event := <-ep.buffer:
					batch = append(batch, event)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown stops the publisher after delivering buffered events.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if ep == nil || !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByLevel creates a filter that only allows events of a level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}
	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	return func(event Event) bool {
		_, ok := typeSet[event.Type]
		return ok
	}
}

// FilterByResource creates a filter that only allows events for one resource.
func FilterByResource(resource string) EventFilter {
	return func(event Event) bool {
		return event.Resource == resource
	}
}
