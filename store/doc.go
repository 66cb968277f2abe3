/*
Package store provides the client for opening and working with a Loam store.

A Store is opened against any engine.Engine implementation: the embedded
libloam engine, a remote daemon, or the in-memory engine for tests. All data
operations flow through it: Transact commits datoms written in transaction
notation, the Set helpers assert single values, Query prepares typed queries,
and observers deliver change notifications for watched attributes.

Typical usage is to construct a Store with Open, transact or query, and
Close when done. Tests can inject a scripted engine with Config.Engine to
exercise failure paths without a native library:

	s, err := store.Open(store.Config{Engine: mem.New(), Path: ""})
	if err != nil {
		// ...
	}
	defer s.Close()
*/
package store
