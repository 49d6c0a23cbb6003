// Package modshim rewrites stale host-API references inside mod binaries so
// that mods built against an old host version keep loading on the current
// one.
//
// Mods ship as WebAssembly core modules whose import table names the host
// types, methods, and fields they were compiled against. When the host
// renames or removes API, those imports stop binding. modshim patches the
// import table offline: each broken reference is either redirected to its
// new home or to a compatibility facade module, and everything that still
// resolves is left byte-for-byte untouched.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	modshim/             Root package with the one-call Patch helper
//	├── metadata/        Mod binary decoding, encoding, and synthesis
//	├── hostapi/         Current-host API surface and version ranges
//	├── rewrite/         Rules, matcher, engine, reports, sessions
//	├── facade/          Compatibility facade descriptors, synthesis, guard
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
// Rewrite a batch of mod binaries against the running host:
//
//	results, summary, err := modshim.Patch(ctx, modshim.Config{
//	    Host:    surface,
//	    Rules:   catalog,
//	    Facades: facades,
//	}, mods)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d of %d modules rewritten\n",
//	    summary.ModulesRewritten, summary.Modules)
//
// # Rewrite Semantics
//
// A pass visits every import-table reference exactly once. A reference that
// resolves against the current host is never rewritten, and a reference
// already pointing into the "compat:" facade namespace is skipped, so
// running the same pass twice is a no-op. Among applicable rules the most
// specific wins: exact signature over member name over type only. Rewrites
// change only the module/name strings of an import, never its kind, type
// index, or descriptor, so the mod's compiled call sites stay valid.
//
// Broken references no rule covers are recorded in the pass Report as
// unresolved, not raised; whether such a module still loads is the mod
// loader's policy, not this library's.
//
// # Facades
//
// When old API has no direct equivalent, a facade module under the
// "compat:" namespace stands in for the old type: forwarding functions for
// renamed methods, re-exported or accessor-backed globals for moved fields.
// Facades bridge existing references only. Their constructors trap, and
// facade.Guard turns that trap into a FacadeMisuseError so new-object
// creation through a facade fails loudly.
//
// # Thread Safety
//
// Surfaces, rule sets, and facade registries follow a build-then-freeze
// lifecycle: mutate them single-threaded, freeze, then share. Engine and
// Session hold only frozen state and are safe for concurrent use; each pass
// works on a private copy of its module.
package modshim
