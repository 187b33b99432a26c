// Package store defines the aggregate persistence interface.
//
// Each subsystem (step, workflow, submission, event) defines its own store
// interface. The composite [Store] composes them all, so one backend serves
// the whole service.
//
// # Available Backends
//
//   - store/memory: in-process maps, for development and tests
//   - store/redis: Redis hashes with a per-session TTL
//
// # Usage
//
//	s, closeFn, err := store.Open(ctx, cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer closeFn()
//
//	c, err := bequest.New(bequest.WithConfig(cfg), bequest.WithStore(s))
package store
