// Package gate evaluates CEL policies against audit records.
package gate

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/scan-io-git/remedy/internal/audit"
)

// Variable is the name a policy uses to refer to the record.
const Variable = "record"

// Gate is a compiled policy expression.
type Gate struct {
	expr string
	prg  cel.Program
}

// New compiles expr. The expression must evaluate to a bool.
func New(expr string) (*Gate, error) {
	env, err := cel.NewEnv(
		cel.Variable(Variable, cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("cel environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("type-check error: %w", issues.Err())
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("policy %q yields %s, want bool", expr, out)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program construction error: %w", err)
	}
	return &Gate{expr: expr, prg: prg}, nil
}

func (g *Gate) String() string { return g.expr }

// Evaluate reports whether rec passes the policy.
func (g *Gate) Evaluate(rec audit.Record) (bool, error) {
	vars, err := toMap(rec)
	if err != nil {
		return false, err
	}
	out, _, err := g.prg.Eval(map[string]any{Variable: vars})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", g.expr, err)
	}
	pass, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy %q yielded %T, want bool", g.expr, out.Value())
	}
	return pass, nil
}

// Failures returns the file ids of the records that do not pass.
func (g *Gate) Failures(records []audit.Record) ([]string, error) {
	var failed []string
	for _, rec := range records {
		pass, err := g.Evaluate(rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Meta.FileID, err)
		}
		if !pass {
			failed = append(failed, rec.Meta.FileID)
		}
	}
	return failed, nil
}

func toMap(rec audit.Record) (map[string]any, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return m, nil
}
