// Package correlation generates, stores, and expires trace/span identifiers
// keyed by logical context strings.
//
// Two independently-invoked call sites (a "before" and an "after" hook for
// the same task, say) resolve the same context key to the same id without
// talking to each other. Records expire after a TTL and the table is
// persisted to a file store on a periodic flush so identities survive
// process restarts.
package correlation
