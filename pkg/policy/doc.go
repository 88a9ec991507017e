// Package policy implements a small declarative guard layer: named boolean
// conditions ("policies"), immutable name-indexed sets of them, and uniform
// evaluation entry points that either report or reject.
//
// The package owns policy construction, set building (including
// context-scoped and curried factories), short-circuiting combinators, and
// bulk evaluation. It is intentionally synchronous and free of I/O so guards
// can run inline on any code path; asynchronous work must be resolved by the
// caller before the candidate value is passed in.
package policy
