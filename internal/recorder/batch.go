package recorder

import (
	"fmt"

	"CandleKeeper/internal/model"
)

// Per-statement results that are not row counts.
const (
	// RowCountUnknown is reported when the driver executed a statement but
	// cannot tell how many rows it touched. It counts as success.
	RowCountUnknown int64 = -2
	// RowCountFailed marks a statement that returned an error.
	RowCountFailed int64 = -3
)

// classifyBatch decides whether a batch may be committed. A positive count is
// an insert, zero is an existing row updated in place by the upsert trigger,
// and RowCountUnknown is accepted. Anything else fails the whole batch, as
// does a result count that does not match the statements submitted.
func classifyBatch(counts []int64, submitted int) error {
	succeeded, failed := 0, 0
	for _, n := range counts {
		if n >= 0 || n == RowCountUnknown {
			succeeded++
		} else {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d batch statements failed", model.ErrPersistence, failed, submitted)
	}
	if succeeded != submitted {
		return fmt.Errorf("%w: %d of %d batch statements reported success", model.ErrPersistence, succeeded, submitted)
	}
	return nil
}
