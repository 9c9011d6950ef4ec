package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"chatstatus/src/domain"
)

// ResolveAll resolve todos os indicadores do cabeçalho em paralelo. Cada um
// é independente: a falha de um não afeta os outros, e o resultado segue a
// ordem de domain.AllIndicators.
func (rs *ResolverService) ResolveAll(ctx context.Context, chatID string) []Outcome {
	outcomes := make([]Outcome, len(domain.AllIndicators))

	var group errgroup.Group
	group.SetLimit(rs.concurrency)

	for i, kind := range domain.AllIndicators {
		group.Go(func() error {
			outcomes[i] = rs.Resolve(ctx, kind, chatID)
			return nil
		})
	}

	_ = group.Wait()
	return outcomes
}
