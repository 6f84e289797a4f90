// Package scheduler runs the periodic checks of document sources.
//
// The scheduler polls the source store at a jittered interval, runs the
// check of every enabled periodic source whose interval has elapsed, and
// records a check status per source. Checks of one source never overlap,
// and at most a configured number of checks run at once. Sources whose
// backend can watch for changes trigger an early check.
package scheduler
