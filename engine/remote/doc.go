/*
Package remote speaks the wire protocol over a unix domain socket, in both
directions: Dial turns a loamd daemon into an engine.Engine for this
process, and Server exposes any engine.Engine to other processes.

Client side:

	conn, err := remote.Dial(remote.DefaultSocketPath())
	if err != nil {
		return err
	}
	defer conn.Close()
	st, err := store.Open(store.Config{Engine: conn.Engine()})

Server side, typically loamd:

	ln, err := remote.Listen(remote.DefaultSocketPath())
	if err != nil {
		return err
	}
	srv, err := remote.NewServer(mem.New(), remote.WithLogger(log))
	if err != nil {
		return err
	}
	return srv.Serve(ctx, ln)

Frames are newline-delimited JSON. A Conn serializes calls, so a store
shared by goroutines performs one engine call at a time; open more
connections for parallelism. Observers are not available through this
transport.
*/
package remote
