// Package types defines the public types shared by tmplkit packages:
// resources, decode limits and typed errors.
//
// Design goals:
//   - Resources are plain values owned by the caller; editors hold references.
//   - Typed errors with stable categories (truncated/unknown field/repeat
//     count/structure/...) so callers branch on intent rather than text.
//   - Paranoid bounds checking; never panic on malformed input.
//
// This package has no dependencies beyond the standard library.
package types
