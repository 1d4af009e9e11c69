// Package intercept turns calls into instrumentable library functions into
// provenance events without touching the callers.
//
// Instrumentable libraries expose their functions through an Object
// namespace and dispatch every call through it. Patch swaps one attribute of
// that namespace for a wrapper that reports a chosen argument to a Recorder
// and then calls the original. The original is kept beside the attribute on
// the object that owns it, which is also how a second Patch of the same
// function is detected and skipped, whichever path reached it.
//
// The Resolver maps dotted module names to loaders, loading each segment
// only when something below it is resolved.
package intercept
