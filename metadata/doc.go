// Package metadata decodes compiled mod modules into mutable reference
// tables and re-encodes them after rewriting.
//
// A mod is a WebAssembly core module. The host application exposes its
// public API to mods through imports, so a mod's external references are
// exactly its import-section entries:
//
//   - a method reference is a function import: declaring-type path (the
//     import module name, e.g. "host:sim/actor@1.0.0"), member name, and a
//     function signature,
//   - a field reference is a global import: declaring-type path, member
//     name, value type, and mutability,
//   - a type reference is a distinct declaring-type path appearing in the
//     import section.
//
// Decode parses a binary into a Module whose Types, Methods, and Fields
// tables may be mutated by a rewrite pass. Encode emits a binary identical
// to the input except for the import section, which reflects the current
// table contents. Replacing a table entry never changes the entry's import
// kind or descriptor (function type index, global value type, mutability),
// so the mod's compiled call sites and index spaces remain valid.
//
// The package also provides a Builder for synthesizing module binaries:
// facade modules with forwarding bodies, and fixtures for tests.
package metadata
