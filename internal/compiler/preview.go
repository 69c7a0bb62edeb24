package compiler

import (
	"context"

	"github.com/roach88/stepwire/internal/ctxlog"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/resolver"
)

// NodePreview shows how each input slot of one node would resolve.
type NodePreview struct {
	Node  ir.StepNode           `json:"node"`
	Slots []resolver.SlotResult `json:"slots"`
}

// Preview is the result of a resolution dry run. Unlike Compile it is
// returned even when required slots are unresolved.
type Preview struct {
	Order       []ir.StepNode   `json:"order"`
	Nodes       []NodePreview   `json:"nodes"`
	Unresolved  []ir.Diagnostic `json:"unresolved,omitempty"`
	Diagnostics []ir.Diagnostic `json:"diagnostics,omitempty"`
	Report      ir.PlanReport   `json:"report"`
}

// Resolvable reports whether Compile would succeed on the same input.
func (p *Preview) Resolvable() bool {
	return len(p.Unresolved) == 0
}

// Preview resolves g without failing on unresolved slots. Structural,
// lookup and cancellation errors are still returned.
func (c *Compiler) Preview(ctx context.Context, g ir.Graph) (*Preview, error) {
	p, err := c.walk(ctx, g)
	if err != nil {
		return nil, err
	}

	out := &Preview{
		Order:       make([]ir.StepNode, len(p.placed)),
		Nodes:       make([]NodePreview, len(p.placed)),
		Diagnostics: p.diagnostics,
		Report:      c.report(p),
	}
	for i, pn := range p.placed {
		out.Order[i] = pn.node
		out.Nodes[i] = NodePreview{Node: pn.node, Slots: pn.res.Slots}
	}
	for _, u := range p.unresolved {
		out.Unresolved = append(out.Unresolved, u.Diagnostic())
	}
	if c.edgePolicy == EdgePolicyError {
		out.Unresolved = append(out.Unresolved, p.inconsistent...)
	}

	ctxlog.FromContext(ctx).Debug("previewed graph",
		"graph", g.Name,
		"nodes", len(out.Order),
		"unresolved", len(out.Unresolved))
	return out, nil
}
