// Package tracker implements the sink's failure-notification collaborators.
//
// Trackers are strictly best-effort: every implementation swallows its own
// errors so a broken monitoring path can never stall or fail the retry loop
// it reports on.
package tracker
