// Package bonusrule evaluates cafe bonus-point campaigns written as CEL expressions, e.g.
//
//	order.total >= 25 && customer.tier == "GOLD"
//	"Pastry" in order.categories && order.hour < 10
package bonusrule

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// Fact is what a rule can see about a completed order.
type Fact struct {
	OrderTotal     float64
	ItemCount      int
	Categories     []string
	Hour           int
	Weekday        string
	Tier           string
	TotalOrders    int
	LifetimePoints int
}

func (f Fact) vars() map[string]any {
	categories := f.Categories
	if categories == nil {
		categories = []string{}
	}
	return map[string]any{
		"order": map[string]any{
			"total":      f.OrderTotal,
			"itemCount":  f.ItemCount,
			"categories": categories,
			"hour":       f.Hour,
			"weekday":    f.Weekday,
		},
		"customer": map[string]any{
			"tier":           f.Tier,
			"totalOrders":    f.TotalOrders,
			"lifetimePoints": f.LifetimePoints,
		},
	}
}

// Engine compiles rule expressions against the order/customer environment.
type Engine struct {
	env *cel.Env
}

func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("order", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("customer", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create cel env")
	}
	return &Engine{env: env}, nil
}

// Rule is a compiled campaign.
type Rule struct {
	ID        string
	Name      string
	Points    int
	Condition string

	program cel.Program
}

// sample is a plausible fact used to catch rules whose dynamic result is not a bool.
var sample = Fact{
	OrderTotal:     12.5,
	ItemCount:      2,
	Categories:     []string{"Coffee"},
	Hour:           9,
	Weekday:        "Monday",
	Tier:           "BRONZE",
	TotalOrders:    3,
	LifetimePoints: 250,
}

// Compile parses and type-checks a condition. The expression must yield a bool; a
// dynamically typed one is evaluated once against a sample fact to confirm it.
func (e *Engine) Compile(id, name, condition string, points int) (*Rule, error) {
	ast, iss := e.env.Compile(condition)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrapf(iss.Err(), "compile rule %q", name)
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("rule %q must evaluate to bool, got %s", name, out)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrapf(err, "program rule %q", name)
	}
	rule := &Rule{ID: id, Name: name, Points: points, Condition: condition, program: prg}
	if out.IsExactType(cel.DynType) {
		// evaluation errors depend on the data and are left to Matches
		if v, _, err := prg.Eval(sample.vars()); err == nil {
			if _, ok := v.Value().(bool); !ok {
				return nil, fmt.Errorf("rule %q must evaluate to bool, got %T", name, v.Value())
			}
		}
	}
	return rule, nil
}

// Matches evaluates the rule against a fact.
func (r *Rule) Matches(f Fact) (bool, error) {
	out, _, err := r.program.Eval(f.vars())
	if err != nil {
		return false, errors.Wrapf(err, "evaluate rule %q", r.Name)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("rule %q returned %T", r.Name, out.Value())
	}
	return ok, nil
}
