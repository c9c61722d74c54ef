package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/rocketscience/rocketscience/pkg/outcome"
	"github.com/rocketscience/rocketscience/pkg/spacex"
)

var (
	company  = spacex.CompanyInfo{Name: "SpaceX", Founder: "Elon Musk", Founded: 2002}
	launches = []spacex.Launch{
		{MissionName: "FalconSat", LaunchYear: "2006"},
		{MissionName: "DemoSat", LaunchYear: "2007"},
	}
)

// fakeSource serves the configured outcomes. A nil stream function returns
// a stream that closes immediately.
type fakeSource struct {
	company  func(ctx context.Context) <-chan outcome.Outcome[spacex.CompanyInfo]
	launches func(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch]
	filtered func(ctx context.Context, c spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch]
}

func (f *fakeSource) CompanyInfo(ctx context.Context) <-chan outcome.Outcome[spacex.CompanyInfo] {
	if f.company == nil {
		return stream[spacex.CompanyInfo]()
	}
	return f.company(ctx)
}

func (f *fakeSource) Launches(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
	if f.launches == nil {
		return stream[[]spacex.Launch]()
	}
	return f.launches(ctx)
}

func (f *fakeSource) FilteredLaunches(ctx context.Context, c spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch] {
	if f.filtered == nil {
		return stream[[]spacex.Launch]()
	}
	return f.filtered(ctx, c)
}

// stream returns a closed channel pre-filled with items.
func stream[T any](items ...outcome.Outcome[T]) <-chan outcome.Outcome[T] {
	ch := make(chan outcome.Outcome[T], len(items))
	for _, o := range items {
		ch <- o
	}
	close(ch)
	return ch
}

// gated returns a stream that emits items one by one as release is
// signalled and closes when ctx is done.
func gated[T any](ctx context.Context, release <-chan struct{}, items ...outcome.Outcome[T]) <-chan outcome.Outcome[T] {
	ch := make(chan outcome.Outcome[T])
	go func() {
		defer close(ch)
		for _, o := range items {
			select {
			case <-release:
			case <-ctx.Done():
				return
			}
			select {
			case ch <- o:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch
}

func waitFor(t *testing.T, vm *ViewModel, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s := vm.Current(); cond(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met, state = %+v", vm.Current())
	return State{}
}

func TestNewViewModelIsLoading(t *testing.T) {
	vm := NewViewModel(&fakeSource{}, nil)
	want := State{UI: StateLoading, Launches: []spacex.Launch{}}
	if diff := cmp.Diff(want, vm.Current()); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	netFail := outcome.NewNetworkFailure("", nil)

	tests := []struct {
		name     string
		company  []outcome.Outcome[spacex.CompanyInfo]
		launches []outcome.Outcome[[]spacex.Launch]
		want     State
	}{
		{
			name:     "both succeed",
			company:  []outcome.Outcome[spacex.CompanyInfo]{outcome.Success(company)},
			launches: []outcome.Outcome[[]spacex.Launch]{outcome.Success(launches)},
			want:     State{UI: StateSuccess, Company: &company, Launches: launches},
		},
		{
			name:     "launches recovered from cache",
			company:  []outcome.Outcome[spacex.CompanyInfo]{outcome.Success(company)},
			launches: []outcome.Outcome[[]spacex.Launch]{outcome.Fail[[]spacex.Launch](netFail), outcome.Success(launches)},
			want:     State{UI: StateSuccess, Company: &company, Launches: launches},
		},
		{
			name:     "cache miss",
			launches: []outcome.Outcome[[]spacex.Launch]{outcome.Fail[[]spacex.Launch](netFail), outcome.Fail[[]spacex.Launch](outcome.NewCacheMissFailure())},
			want:     State{UI: StateError, Error: CacheMissMessage, ErrorKind: outcome.KindCacheMiss, Launches: []spacex.Launch{}},
		},
		{
			name:     "empty list is not a miss",
			launches: []outcome.Outcome[[]spacex.Launch]{outcome.Success([]spacex.Launch{})},
			want:     State{UI: StateSuccess, Launches: []spacex.Launch{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{
				company: func(context.Context) <-chan outcome.Outcome[spacex.CompanyInfo] {
					return stream(tt.company...)
				},
				launches: func(context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
					return stream(tt.launches...)
				},
			}
			vm := NewViewModel(src, nil)

			if err := vm.Load(context.Background()); err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, vm.Current()); diff != "" {
				t.Errorf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFailureKeepsData(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{
		launches: func(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
			return gated(ctx, release,
				outcome.Success(launches),
				outcome.Fail[[]spacex.Launch](outcome.NewAPIFailure(500, "Internal Server Error", nil)),
			)
		},
	}
	vm := NewViewModel(src, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = vm.Load(ctx) }()

	release <- struct{}{}
	waitFor(t, vm, func(s State) bool { return s.UI == StateSuccess })

	release <- struct{}{}
	s := waitFor(t, vm, func(s State) bool { return s.UI == StateError })
	if diff := cmp.Diff(launches, s.Launches); diff != "" {
		t.Errorf("error cleared launches (-want +got):\n%s", diff)
	}
	if s.Error != "SpaceX API error (HTTP 500): Internal Server Error" {
		t.Errorf("Error = %q", s.Error)
	}
}

func TestApplyFilterStartsLoading(t *testing.T) {
	release := make(chan struct{})
	var got spacex.FilterCriteria
	src := &fakeSource{
		launches: func(context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
			return stream(outcome.Success(launches))
		},
		filtered: func(ctx context.Context, c spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch] {
			got = c
			return gated(ctx, release, outcome.Success(launches[:1]))
		},
	}
	vm := NewViewModel(src, nil)
	_ = vm.Load(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	criteria := spacex.FilterCriteria{Years: []string{"2006"}, Descending: true}
	done := make(chan struct{})
	go func() {
		_ = vm.ApplyFilter(ctx, criteria)
		close(done)
	}()

	s := waitFor(t, vm, func(s State) bool { return s.UI == StateLoading })
	if len(s.Launches) != 2 {
		t.Errorf("Loading cleared the shown launches: %+v", s.Launches)
	}

	release <- struct{}{}
	s = waitFor(t, vm, func(s State) bool { return s.UI == StateSuccess })
	if diff := cmp.Diff(launches[:1], s.Launches); diff != "" {
		t.Errorf("filtered launches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(criteria, got); diff != "" {
		t.Errorf("criteria mismatch (-want +got):\n%s", diff)
	}

	cancel()
	<-done
}

func TestApplyFilterSupersedesLaunchStream(t *testing.T) {
	release := make(chan struct{})
	src := &fakeSource{
		launches: func(ctx context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
			return gated(ctx, release, outcome.Success(launches), outcome.Success(launches))
		},
		filtered: func(context.Context, spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch] {
			return stream(outcome.Success(launches[1:]))
		},
	}
	vm := NewViewModel(src, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loaded := make(chan struct{})
	go func() {
		_ = vm.Load(ctx)
		close(loaded)
	}()
	release <- struct{}{}
	waitFor(t, vm, func(s State) bool { return len(s.Launches) == 2 })

	if err := vm.ApplyFilter(ctx, spacex.FilterCriteria{}); err != nil {
		t.Fatalf("ApplyFilter() error = %v", err)
	}

	// The unfiltered stream was cancelled, so Load returns on its own.
	select {
	case <-loaded:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded stream is still collected")
	}
	if diff := cmp.Diff(launches[1:], vm.Current().Launches); diff != "" {
		t.Errorf("launches mismatch (-want +got):\n%s", diff)
	}
}

func TestDismissError(t *testing.T) {
	tests := []struct {
		name  string
		start State
		want  UIState
	}{
		{name: "with data", start: State{UI: StateError, Error: "x", Launches: launches}, want: StateSuccess},
		{name: "with company only", start: State{UI: StateError, Error: "x", Company: &company}, want: StateSuccess},
		{name: "without data", start: State{UI: StateError, Error: "x"}, want: StateLoading},
		{name: "not an error", start: State{UI: StateLoading}, want: StateLoading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := NewViewModel(&fakeSource{}, nil)
			vm.state = tt.start
			vm.DismissError()

			s := vm.Current()
			if s.UI != tt.want || s.Error != "" {
				t.Errorf("state = %+v, want UI %s without error", s, tt.want)
			}
		})
	}
}

func TestSubscribeDeliversLatest(t *testing.T) {
	vm := NewViewModel(&fakeSource{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	sub := vm.Subscribe(ctx)

	vm.update(func(s *State) { s.UI = StateError; s.Error = "first" })
	vm.update(func(s *State) { s.Error = "second" })
	vm.update(func(s *State) { s.UI = StateSuccess; s.Error = "" })

	s := <-sub
	if s.UI != StateSuccess {
		t.Errorf("slow subscriber got %+v, want the latest state", s)
	}
	select {
	case s := <-sub:
		t.Errorf("unexpected buffered state %+v", s)
	default:
	}

	cancel()
	select {
	case _, ok := <-sub:
		if ok {
			t.Error("channel not closed after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		failure *outcome.Failure
		want    string
	}{
		{failure: nil, want: ""},
		{failure: outcome.NewCacheMissFailure(), want: CacheMissMessage},
		{failure: outcome.NewNetworkFailure("", nil), want: "No internet connection"},
		{failure: outcome.NewAPIFailure(404, "Not Found", nil), want: "SpaceX API error (HTTP 404): Not Found"},
		{failure: outcome.NewStorageFailure("", nil), want: "Database error occurred"},
		{failure: outcome.NewUnknownFailure("bad payload", nil), want: "bad payload"},
	}

	for _, tt := range tests {
		if got := Message(tt.failure); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.failure, got, tt.want)
		}
	}
}

func TestLoadUsesActiveFilter(t *testing.T) {
	var got spacex.FilterCriteria
	src := &fakeSource{
		launches: func(context.Context) <-chan outcome.Outcome[[]spacex.Launch] {
			t.Error("unfiltered stream used while a filter is active")
			return stream[[]spacex.Launch]()
		},
		filtered: func(_ context.Context, c spacex.FilterCriteria) <-chan outcome.Outcome[[]spacex.Launch] {
			got = c
			return stream(outcome.Success(launches[:1]))
		},
	}
	vm := NewViewModel(src, nil)
	criteria := spacex.FilterCriteria{Descending: true}
	vm.SetFilter(criteria)

	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if diff := cmp.Diff(criteria, got); diff != "" {
		t.Errorf("criteria mismatch (-want +got):\n%s", diff)
	}
	if len(vm.Current().Launches) != 1 {
		t.Errorf("launches = %+v", vm.Current().Launches)
	}
}
