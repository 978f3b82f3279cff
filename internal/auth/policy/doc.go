// Package policy evaluates ordered access rules for the two request surfaces.
//
// A Chain is a list of (Pattern, Requirement) rules checked top to bottom;
// the first rule whose pattern matches the request path decides. A path that
// matches no rule falls through to the chain's Default, which is admin-only.
package policy
