/*
Package engine defines the call contract between the Loam SDK and a Loam
engine, along with the opaque handle types that cross it.

Applications rarely touch this package directly; they pick an implementation
and hand it to store.Open:

  - libloam loads the native engine shared library in-process.
  - remote speaks to a loamd daemon over a unix socket.
  - wapc reaches a host-provided engine from inside a waPC guest.
  - mem is a small in-memory engine for tests and local development.

Implementers of new adapters should read the ownership rules on the Engine
interface carefully: execute calls consume the query handle on every path,
and no handle is ever released twice.
*/
package engine
