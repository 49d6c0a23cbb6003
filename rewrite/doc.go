// Package rewrite repairs a mod module's broken host-API references.
//
// A RuleSet pairs match keys (declaring type, optional member name,
// optional exact signature) with rewrite actions (redirect to a facade
// member, rename a member, retarget a declaring type), each scoped to the
// host-version range it bridges. Rule sets are validated at build time:
// two rules that tie on key and specificity for an overlapping version
// range are a configuration defect and construction fails with
// *AmbiguousRuleError rather than letting the matcher pick one at runtime.
//
// The Matcher decides per reference. Resolution against the current host
// surface always wins: a reference that still binds is never touched, and a
// reference already pointing into the facade namespace is never rewritten
// again. Otherwise the most specific applicable rule is chosen, with the
// documented precedence exact signature > member name > type only. A
// reference with no rule and no resolution is flagged unresolved, never
// raised.
//
// The Engine walks a module's three reference tables exactly once, applies
// matches reference-locally on a private copy, and returns the finished
// module with a Report. Unresolved references accumulate in the report; the
// pass always completes. Session runs independent passes for many modules
// concurrently and aggregates their reports.
package rewrite
