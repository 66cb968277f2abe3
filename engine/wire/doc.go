/*
Package wire defines the JSON frame protocol spoken between the SDK and an
out-of-process Loam engine, and a Client that turns any frame transport into
an engine.Engine.

A frame transport is a single function:

	rt := func(req wire.Request) (wire.Response, error) { ... }
	eng, err := wire.NewClient(rt)

The remote package provides a unix-socket RoundTripper for loamd, and the
wapc package provides one for waPC guests. Servers answer frames with
Dispatch, which maps a Request onto a local engine.Engine.

Sentinel errors survive the round trip: failing responses carry a code that
the client folds back into sdk.ErrTypeMismatch, sdk.ErrIndexOutOfRange,
engine.ErrUnknownHandle, or engine.ErrNotSupported, so errors.Is behaves the
same against a remote engine as against a local one.
*/
package wire
