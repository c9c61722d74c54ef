// Package dashboard turns repository result streams into a single observable
// dashboard state.
//
// A ViewModel collects the company and launch streams, folds every Outcome
// into a State (last write wins) and hands snapshots to subscribers:
//
//	vm := dashboard.NewViewModel(repo, logger)
//	states := vm.Subscribe(ctx)
//	go vm.Load(ctx)
//	for s := range states {
//		render(s)
//	}
//
// Failures switch the state to Error but never clear the data already shown.
// Subscribers that fall behind only see the most recent state.
package dashboard
