/*
Package query carries the typed bind and result machinery of the Loam SDK:
preparing a query, binding values to its named ?variables, executing it in
one of four shapes, and decoding the typed values that come back.

A Builder is obtained from store.Query (or Build, for code holding an engine
directly), bound fluently, and executed exactly once. The execute shape
picks the result wrapper the handler receives: ExecuteScalar hands over one
TypedValue, ExecuteTuple one Row, ExecuteList a single-column List, and
ExecuteRows the whole relation. Handlers run synchronously; whatever they
receive is released when they return.

Every wrapper owns exactly one native handle and releases it exactly once.
Using a wrapper after its release, or a builder after its execute, fails
with sdk.ErrReleased or sdk.ErrConsumed without ever reaching the engine.
Decodes are strict: asking a value for a kind it does not hold fails with
sdk.ErrTypeMismatch and the value stays decodable.
*/
package query
