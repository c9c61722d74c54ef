// Package repository coordinates the remote API and the local cache.
//
// Every request fetches once. A successful fetch is emitted first and then
// written through to the cache. A network or API failure is emitted first and
// then the cached snapshot is served as a recovered success, or a cache-miss
// failure when there is nothing to serve. Any other failure is emitted and
// ends the request.
//
// Results are delivered on a channel that is closed when the request is
// finished. With follow enabled (the default) a recovered request keeps
// forwarding later cache snapshots until its context is cancelled. Nothing is
// sent after the context is done.
//
//	repo := repository.New(client, local.NewDataSource(store, logger))
//	for o := range repo.Launches(ctx) {
//	    if !o.OK() {
//	        log.Println(o.Failure)
//	        continue
//	    }
//	    render(o.Value)
//	}
package repository
