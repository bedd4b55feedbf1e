package reconcile

import (
	"fmt"
	"reflect"

	"github.com/google/cel-go/cel"
)

// ClientRule is a client-specific deduction expressed in CEL. Expression must
// evaluate to a bool over the reconciliation facts; when true, Points are
// deducted.
type ClientRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
	Points     int    `yaml:"points"`
	Reason     string `yaml:"reason"`
}

// Facts are the values client rules can reference.
type Facts struct {
	MissingEvidence  []string
	LaborRateFound   bool
	TaxRequired      bool
	TaxFound         bool
	AftermarketParts bool
	VehicleYear      int
	CurrentYear      int
	Baseline         int
	PolicyText       string
	CombinedText     string
}

func (f Facts) activation() map[string]any {
	missing := f.MissingEvidence
	if missing == nil {
		missing = []string{}
	}
	return map[string]any{
		"missing_evidence":  missing,
		"labor_rate_found":  f.LaborRateFound,
		"tax_required":      f.TaxRequired,
		"tax_found":         f.TaxFound,
		"aftermarket_parts": f.AftermarketParts,
		"vehicle_year":      f.VehicleYear,
		"current_year":      f.CurrentYear,
		"baseline":          f.Baseline,
		"policy_text":       f.PolicyText,
		"combined_text":     f.CombinedText,
	}
}

func factsEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("missing_evidence", cel.ListType(cel.StringType)),
		cel.Variable("labor_rate_found", cel.BoolType),
		cel.Variable("tax_required", cel.BoolType),
		cel.Variable("tax_found", cel.BoolType),
		cel.Variable("aftermarket_parts", cel.BoolType),
		cel.Variable("vehicle_year", cel.IntType),
		cel.Variable("current_year", cel.IntType),
		cel.Variable("baseline", cel.IntType),
		cel.Variable("policy_text", cel.StringType),
		cel.Variable("combined_text", cel.StringType),
	)
}

// compiledRule is a ClientRule with its CEL program.
type compiledRule struct {
	ClientRule
	program cel.Program
}

// compileRules type-checks every rule up front so a bad rule is rejected at
// load time rather than during a review.
func compileRules(rules []ClientRule) ([]compiledRule, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	env, err := factsEnv()
	if err != nil {
		return nil, fmt.Errorf("error creating CEL environment: %w", err)
	}
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("client rule name can't be empty")
		}
		if r.Expression == "" {
			return nil, fmt.Errorf("client rule %q: expression can't be empty", r.Name)
		}
		ast, issues := env.Compile(r.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("client rule %q: error compiling CEL expression: %w", r.Name, issues.Err())
		}
		if !ast.OutputType().IsExactType(cel.BoolType) {
			return nil, fmt.Errorf("client rule %q: expression must be bool, got %v", r.Name, ast.OutputType())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("client rule %q: error creating program: %w", r.Name, err)
		}
		out = append(out, compiledRule{ClientRule: r, program: prg})
	}
	return out, nil
}

// ValidateClientRules compiles rules without keeping the programs.
func ValidateClientRules(rules []ClientRule) error {
	_, err := compileRules(rules)
	return err
}

func (r compiledRule) eval(f Facts) (bool, error) {
	out, _, err := r.program.Eval(f.activation())
	if err != nil {
		return false, fmt.Errorf("client rule %q: error evaluating CEL expression: %w", r.Name, err)
	}
	nv, err := out.ConvertToNative(reflect.TypeOf(false))
	if err != nil {
		return false, fmt.Errorf("client rule %q: %w", r.Name, err)
	}
	fired, ok := nv.(bool)
	if !ok {
		return false, fmt.Errorf("client rule %q: result is not bool: %v", r.Name, nv)
	}
	return fired, nil
}
