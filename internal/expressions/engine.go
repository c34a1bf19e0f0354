package expressions

import "context"

// Engine evaluates a user-supplied expression against a data document.
// Two implementations: Expr for incident search filters, GoJQ for picking
// fields out of upstream JSON replies.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
