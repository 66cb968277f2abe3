/*
Package sdk provides the shared vocabulary for the Loam Go SDK: the value
kinds that cross the engine boundary, the sentinel errors used across
packages, and the RuntimeConfig embedded by component configurations.

The packages most applications import sit below this one: store opens a Loam
store and issues transacts and queries, query carries the typed bind and
result machinery, and the engine tree holds the call contract plus its
adapters (native library, unix socket, waPC host, in-memory).
*/
package sdk
