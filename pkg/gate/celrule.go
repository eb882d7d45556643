package gate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

var newCELRuleEnv = func() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable("ctx", cel.MapType(cel.StringType, cel.StringType)))
}

var celRuleProgramCache sync.Map

// CELFieldRule compiles a CEL boolean expression into a field rule. The
// expression is evaluated against a `ctx` map carrying:
//
//	principal_id, principal_email, superuser ("true"/"false"),
//	field, has_object ("true"/"false")
//
// Compilation happens once per distinct expression; compile errors surface
// here, evaluation errors propagate through the gate.
func CELFieldRule(expr string) (FieldRule, error) {
	program, err := loadOrCompileCELRule(expr)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req Request, obj any, fieldName string) (bool, error) {
		return evalCELRule(program, req, obj, "field", fieldName)
	}, nil
}

// CELInlineRule is CELFieldRule for inline sections; the section name is
// exposed to the expression as ctx["inline"].
func CELInlineRule(expr string) (InlineRule, error) {
	program, err := loadOrCompileCELRule(expr)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, req Request, obj any, inlineName string) (bool, error) {
		return evalCELRule(program, req, obj, "inline", inlineName)
	}, nil
}

func loadOrCompileCELRule(expr string) (cel.Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("gate: expression required")
	}
	if cached, ok := celRuleProgramCache.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	env, err := newCELRuleEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.New("gate: expression must evaluate to bool")
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	celRuleProgramCache.Store(expr, program)
	return program, nil
}

func evalCELRule(program cel.Program, req Request, obj any, nameKey string, name string) (bool, error) {
	ctxMap := map[string]string{
		"principal_id":    req.Principal.ID,
		"principal_email": req.Principal.Email,
		"superuser":       strconv.FormatBool(req.Principal.Superuser),
		nameKey:           name,
		"has_object":      strconv.FormatBool(obj != nil),
	}
	out, _, err := program.Eval(map[string]any{"ctx": ctxMap})
	if err != nil {
		return false, err
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, errors.New("gate: expression returned non-bool")
	}
	return allowed, nil
}
