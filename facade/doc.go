// Package facade defines compatibility stand-in modules for host API shapes
// that no longer exist at the current host version.
//
// A Descriptor pairs an original declaring-type path (as mods compiled
// against an old host reference it) with a facade module in the "compat:"
// namespace. The facade reproduces the old public surface member by member
// and forwards each operation to the current host: old methods become
// forwarding functions, renamed fields are re-exported host globals, and
// value-coercion members become pure conversion functions.
//
// Facade modules are rewrite targets, not values mods are meant to
// construct. Every facade exports a constructor under ConstructorExport
// whose body traps unconditionally; the Guard converts that trap into a
// *FacadeMisuseError so a rewrite-engine defect surfaces loudly instead of
// leaking a broken facade instance into mod code.
//
// The Registry follows a build -> freeze -> concurrent-reads lifecycle and
// is shared read-only by all rewrite passes.
package facade
