// Package hostapi describes the public API surface of the running host
// application: the types, methods, and fields the host exports to mods at
// its current version.
//
// The mod loader builds one Surface per process from the host's export
// registry and hands it to the rewrite engine. A reference that resolves
// against the Surface is already valid and is never rewritten; resolution
// always takes precedence over rule matching.
//
// A Surface is immutable after Freeze and safe for concurrent reads by
// multiple rewrite passes.
package hostapi
