// Package keys builds the object storage keys used by the service.
package keys

import (
	"fmt"
	"strings"
	"time"
)

// sanitizeKey replaces spaces with hyphens and lowercases the string.
func sanitizeKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}

// BatchReport returns the canonical object key of a batch report, grouped by
// the UTC day the batch completed.
func BatchReport(batchID string, completedAt time.Time) string {
	return fmt.Sprintf("batches/%s/%s.json",
		completedAt.UTC().Format(time.DateOnly),
		sanitizeKey(batchID),
	)
}
