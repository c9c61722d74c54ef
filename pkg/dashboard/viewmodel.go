package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/spacex"
	"github.com/rocketscience/rocketscience/pkg/telemetry"
)

// UIState is the overall state of the dashboard.
type UIState string

const (
	StateLoading UIState = "loading"
	StateSuccess UIState = "success"
	StateError   UIState = "error"
)

// State is one snapshot of the dashboard.
type State struct {
	UI UIState `json:"state"`

	// Error is the user-facing message while UI is StateError.
	Error string `json:"error,omitempty"`

	// ErrorKind classifies Error.
	ErrorKind outcome.Kind `json:"error_kind,omitempty"`

	Company  *spacex.CompanyInfo `json:"company"`
	Launches []spacex.Launch     `json:"launches"`
}

// HasData reports whether any company or launch data is shown.
func (s State) HasData() bool {
	return s.Company != nil || len(s.Launches) > 0
}

// Source provides the result streams. *repository.Repository implements it.
type Source interface {
	CompanyInfo(ctx context.Context) <-chan outcome.Outcome[spacex.CompanyInfo]
	Launches(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch]
	FilteredLaunches(ctx context.Context, criteria spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch]
}

// slot tracks the stream currently allowed to write one part of the state.
// Starting a new collection supersedes the previous one.
type slot struct {
	gen    uint64
	cancel context.CancelFunc
}

// ViewModel folds result streams into a State. It is safe for concurrent use.
type ViewModel struct {
	source Source
	logger *telemetry.Logger

	mu       sync.Mutex
	state    State
	criteria spacex.FilterCriteria
	company  slot
	launches slot
	subs     map[uint64]chan State
	nextSub  uint64
}

// NewViewModel creates a view model in the Loading state.
func NewViewModel(source Source, logger *telemetry.Logger) *ViewModel {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &ViewModel{
		source: source,
		logger: logger.NewComponentLogger("dashboard"),
		state:  State{UI: StateLoading, Launches: []spacex.Launch{}},
		subs:   make(map[uint64]chan State),
	}
}

// Current returns the latest state.
func (vm *ViewModel) Current() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// SetFilter sets the criteria used by the next Load without loading.
func (vm *ViewModel) SetFilter(criteria spacex.FilterCriteria) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.criteria = criteria
}

// Filter returns the active criteria.
func (vm *ViewModel) Filter() spacex.FilterCriteria {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.criteria
}

// Load collects the company and launch streams concurrently and returns when
// both have ended or ctx is done. The launch stream is filtered when criteria
// were set. Streams from an earlier Load or ApplyFilter are superseded.
func (vm *ViewModel) Load(ctx context.Context) error {
	criteria := vm.Filter()
	companyCtx, companyGen := vm.claim(ctx, &vm.company)
	launchesCtx, launchesGen := vm.claim(ctx, &vm.launches)

	launches := vm.source.Launches
	if len(criteria.Years) > 0 || criteria.Descending {
		launches = func(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
			return vm.source.FilteredLaunches(ctx, criteria)
		}
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		collect(vm, &vm.company, companyGen, vm.source.CompanyInfo(companyCtx), func(s *State, info spacex.CompanyInfo) {
			s.Company = &info
		})
		return nil
	})
	g.Go(func() error {
		collect(vm, &vm.launches, launchesGen, launches(launchesCtx), setLaunches)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Refresh reloads everything with the active criteria.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	vm.logger.Debug("refreshing dashboard")
	return vm.Load(ctx)
}

// ApplyFilter switches to Loading and collects the filtered launch stream. The
// data shown so far stays in place until the first result arrives. The
// criteria stay active for later loads.
func (vm *ViewModel) ApplyFilter(ctx context.Context, criteria spacex.FilterCriteria) error {
	vm.SetFilter(criteria)
	launchesCtx, gen := vm.claim(ctx, &vm.launches)

	vm.update(func(s *State) {
		s.UI = StateLoading
		s.Error = ""
		s.ErrorKind = ""
	})

	vm.logger.WithFields(map[string]interface{}{
		"years":      criteria.Years,
		"descending": criteria.Descending,
	}).Debug("applying launch filter")

	collect(vm, &vm.launches, gen, vm.source.FilteredLaunches(launchesCtx, criteria), setLaunches)
	return ctx.Err()
}

// DismissError acknowledges the current error. The state returns to Success
// when data is shown and to Loading otherwise.
func (vm *ViewModel) DismissError() {
	vm.update(func(s *State) {
		if s.UI != StateError {
			return
		}
		s.Error = ""
		s.ErrorKind = ""
		if s.HasData() {
			s.UI = StateSuccess
		} else {
			s.UI = StateLoading
		}
	})
}

// Subscribe returns a channel of state snapshots, starting with the current
// one. The channel holds a single snapshot; a subscriber that falls behind
// only receives the latest. It is closed when ctx is done.
func (vm *ViewModel) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	vm.mu.Lock()
	id := vm.nextSub
	vm.nextSub++
	vm.subs[id] = ch
	ch <- vm.state
	vm.mu.Unlock()

	go func() {
		<-ctx.Done()
		vm.mu.Lock()
		delete(vm.subs, id)
		close(ch)
		vm.mu.Unlock()
	}()

	return ch
}

// Close cancels every stream still being collected.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for _, s := range []*slot{&vm.company, &vm.launches} {
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
	}
}

// claim supersedes the stream currently owning s and returns the context and
// generation for its replacement.
func (vm *ViewModel) claim(parent context.Context, s *slot) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(parent)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

// release cancels the slot context once its stream has ended, unless it has
// already been superseded.
func (vm *ViewModel) release(s *slot, gen uint64) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if s.gen == gen && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (vm *ViewModel) update(fn func(*State)) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	fn(&vm.state)
	vm.broadcast()
}

// broadcast must be called with mu held.
func (vm *ViewModel) broadcast() {
	for _, ch := range vm.subs {
		select {
		case ch <- vm.state:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- vm.state
		}
	}
}

// collect folds every outcome of ch into the state until ch is closed.
// Outcomes from a superseded stream are dropped.
func collect[T any](vm *ViewModel, s *slot, gen uint64, ch <-chan outcome.Outcome[T], set func(*State, T)) {
	defer vm.release(s, gen)

	for o := range ch {
		vm.mu.Lock()
		if s.gen != gen {
			vm.mu.Unlock()
			continue
		}
		if o.OK() {
			set(&vm.state, o.Value)
			vm.state.UI = StateSuccess
			vm.state.Error = ""
			vm.state.ErrorKind = ""
		} else {
			vm.logger.WithError(o.Failure).Debug("stream reported a failure")
			vm.state.UI = StateError
			vm.state.Error = Message(o.Failure)
			vm.state.ErrorKind = o.Failure.Kind
		}
		vm.broadcast()
		vm.mu.Unlock()
	}
}

func setLaunches(s *State, launches []spacex.Launch) {
	if launches == nil {
		launches = []spacex.Launch{}
	}
	s.Launches = launches
}
