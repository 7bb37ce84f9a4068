package sink

import (
	"fmt"
	"sort"
	"strings"

	"github.com/globeandmail/enrich/internal/domain"
)

// partitionOutcomes splits records by their positionally aligned outcome
// into accepted and rejected sets, preserving relative order in both.
// failedOutcomes is aligned with failed.
func partitionOutcomes(records []domain.Record, outcomes []domain.SendOutcome) (succeeded, failed []domain.Record, failedOutcomes []domain.SendOutcome) {
	for i, o := range outcomes {
		if o.Failed() {
			failed = append(failed, records[i])
			failedOutcomes = append(failedOutcomes, o)
		} else {
			succeeded = append(succeeded, records[i])
		}
	}
	return succeeded, failed, failedOutcomes
}

// failureTally accumulates rejections for one error classifier. Message
// holds the most recently observed message, not the first.
type failureTally struct {
	Count   int
	Message string
}

// summarizeFailures groups failed outcomes by error code. Used only for
// diagnostics; it never drives retry control flow.
func summarizeFailures(outcomes []domain.SendOutcome) map[string]*failureTally {
	summary := make(map[string]*failureTally)
	for _, o := range outcomes {
		t, ok := summary[o.ErrorCode]
		if !ok {
			t = &failureTally{}
			summary[o.ErrorCode] = t
		}
		t.Count++
		t.Message = o.ErrorMessage
	}
	return summary
}

// formatFailureSummary renders a failure summary as one diagnostic line,
// with classifiers in stable sorted order.
func formatFailureSummary(summary map[string]*failureTally) string {
	codes := make([]string, 0, len(summary))
	for code := range summary {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		t := summary[code]
		parts = append(parts, fmt.Sprintf("%d records failed with %s (sample: %s)", t.Count, code, t.Message))
	}
	return strings.Join(parts, "; ")
}
