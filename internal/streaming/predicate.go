package streaming

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/incintel/incintel/pkg/schema"
)

// Subscriber predicates are CEL expressions over a single `event` variable
// holding {type, run_id, incident_id, payload}. The environment is built
// once per process.
var celEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
	)
})

// compilePredicate compiles a CEL filter expression into a program.
// The expression must evaluate to a bool.
func compilePredicate(expression string) (cel.Program, error) {
	env, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"invalid filter expression %q: %s", expression, issues.Err().Error()).
			WithCause(issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"filter expression %q must evaluate to bool, got %s", expression, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"compile filter expression %q: %s", expression, err.Error()).WithCause(err)
	}
	return prg, nil
}

// evalPredicate runs a compiled predicate against an event. Evaluation
// errors count as a non-match rather than tearing down the subscription.
func evalPredicate(prg cel.Program, e StreamEvent) bool {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	out, _, err := prg.Eval(map[string]any{
		"event": map[string]any{
			"type":        e.Type,
			"run_id":      e.RunID,
			"incident_id": e.IncidentID,
			"payload":     payload,
		},
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
