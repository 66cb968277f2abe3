/*
Package mem provides an in-memory engine for tests, the REPL, and local
development without a native library.

The engine keeps datoms in plain slices and speaks a small subset of the
transaction and query notations:

  - Transactions are a vector of [:db/add e a v] / [:db/retract e a v]
    assertions plus {:db/ident :ns/name ...} maps. The e position takes an
    entid, a tempid string, or an ident keyword; values may be longs,
    doubles, booleans, strings, keywords, #inst and #uuid tagged literals.
    Attributes are schema-free with cardinality one: asserting (e, a)
    replaces any previous value.

  - Queries are [:find SPEC :in ?var... :where CLAUSE... :order ...] with
    the four find shapes (scalar `?v .`, tuple `[?a ?b]`, collection
    `[?v ...]`, relation `?a ?b`), where clauses as three-element [e a v]
    patterns over variables, `_`, and literals, and an optional :order of
    (asc ?v) or (desc ?v).

Every handle the engine gives out lives in a table until released; using or
releasing one twice fails with engine.ErrUnknownHandle, which makes the
engine strict enough to catch ownership bugs in the layers above it.
*/
package mem
