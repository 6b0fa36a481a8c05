// Package billing defines the port for querying upstream billing data.
package billing

import (
	"context"
	"fmt"

	"github.com/Strob0t/CostLens/internal/domain/cost"
)

// Result holds the decoded rows of one billing query.
// Degraded is set when the upstream kept rate limiting and Rows is empty.
type Result struct {
	Rows     []cost.Row
	Degraded bool
}

// Querier runs cost queries against the billing API.
type Querier interface {
	Query(ctx context.Context, q cost.Query) (*Result, error)
}

// StatusError is returned by a Querier when the billing API answers with a
// non-success status that retrying will not fix.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("billing api error %d: %s", e.StatusCode, e.Body)
}
