package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns "<job>-<8 hex>".
func NewRunID(job string) string {
	return fmt.Sprintf("%s-%s", job, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// ChunkID suffixes a run id with a 1-based chunk number.
func ChunkID(runID string, n int) string {
	return fmt.Sprintf("%s-c%d", runID, n)
}

// ItemID suffixes a chunk (or run) id with a 1-based item number.
func ItemID(parentID string, n int) string {
	return fmt.Sprintf("%s-i%d", parentID, n)
}

type runIDKey struct{}

// RunIDFromContext returns the id of the run an item belongs to.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
