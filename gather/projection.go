package gather

import (
	"context"

	"github.com/riftdb/gather/rowenc"
)

// Projection is the external "Projection/Qual" collaborator (§2, §6):
// the target-list evaluator applied to every tuple Gather returns,
// whether it was sourced from a worker or produced locally. A
// worker-sourced tuple is materialized into the funnel slot before it
// is passed in; a locally produced tuple is passed as the local plan
// returned it.
type Projection func(ctx context.Context, in rowenc.Tuple) (rowenc.Tuple, error)

// IdentityProjection passes the tuple through unchanged - the
// degenerate projection used when the outer plan has no target-list
// expressions beyond the child plan's own output.
func IdentityProjection(_ context.Context, in rowenc.Tuple) (rowenc.Tuple, error) {
	return in, nil
}
