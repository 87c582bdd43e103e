package rule

import (
	"github.com/google/uuid"

	"github.com/plus3/sigil/expr"
	"github.com/plus3/sigil/selector"
)

// MutationOp is one {target, value} pair: a field to overwrite and the
// expression producing the value written there. The target descriptor is
// parsed once at load; the value expression is evaluated once per target
// entity per frame.
type MutationOp struct {
	Target Target
	Value  *expr.Expr
}

// Rule binds a selector to a guard and a mutation list. The selector is
// resolved once against the shared registry when the rule is built; guard
// and values stay as compiled expressions evaluated every frame. Rules are
// immutable once activated; editing means deactivate and reactivate.
type Rule struct {
	// ID identifies the rule in diagnostics independently of its
	// activation handle.
	ID        uuid.UUID
	Selector  *selector.Node
	Guard     *expr.Expr // nil means mutate the full matched set
	Mutations []MutationOp
}

// New builds a rule with a fresh identity.
func New(sel *selector.Node, guard *expr.Expr, mutations []MutationOp) *Rule {
	return &Rule{
		ID:        uuid.New(),
		Selector:  sel,
		Guard:     guard,
		Mutations: mutations,
	}
}
