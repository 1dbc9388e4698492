package gateway

import (
	"context"

	"go.uber.org/zap"
)

// execute runs one GraphQL query with a bounded deadline and classifies the
// outcome. The deadline is double the baseline per-call timeout because graph
// queries are heavier than REST calls. Remote application errors are returned
// as-is (wrapped with a hint) so callers can inspect them; they never abort
// the process here.
func (g *GitHubGateway) execute(ctx context.Context, query interface{}, variables map[string]interface{}) error {
	if query == nil {
		return validationError("query must not be nil")
	}
	if len(variables) == 0 {
		return validationError("variables must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*g.timeout)
	defer cancel()

	if err := g.graphqlClient.Query(ctx, query, variables); err != nil {
		qerr := classifyQueryError(err)
		switch qerr.Kind {
		case KindRemote:
			// Keep partial information: log with a diagnostic hint and hand
			// the classified error back for inspection.
			g.logger.Warn("graphql query rejected by API",
				zap.String("hint", qerr.Hint),
				zap.Error(qerr.Err))
		case KindTimeout:
			g.logger.Warn("graphql query timed out", zap.Duration("deadline", 2*g.timeout))
		default:
			g.logger.Warn("graphql transport failure", zap.Error(qerr.Err))
		}
		return qerr
	}
	return nil
}
