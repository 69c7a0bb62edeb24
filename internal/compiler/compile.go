package compiler

import (
	"context"
	"fmt"
	"slices"

	"github.com/roach88/stepwire/internal/ctxlog"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/naming"
	"github.com/roach88/stepwire/internal/registry"
	"github.com/roach88/stepwire/internal/resolver"
)

// EdgePolicy decides how a binding whose producer is not an edge ancestor
// of its consumer is treated.
type EdgePolicy string

const (
	EdgePolicyWarn  EdgePolicy = "warn"  // keep the binding, record a warning
	EdgePolicyError EdgePolicy = "error" // fail compilation
)

// DefaultLowConfidence flags bindings below this score in the plan report.
const DefaultLowConfidence = 0.8

// Compiler compiles graphs against a frozen registry. It holds no mutable
// state, so one Compiler may compile independent graphs concurrently.
type Compiler struct {
	registry      *registry.Registry
	names         *naming.Resolver
	resolver      *resolver.Resolver
	edgePolicy    EdgePolicy
	lowConfidence float64
	ids           IDGenerator
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithEdgePolicy sets the edge-inconsistency policy. The default is EdgePolicyWarn.
func WithEdgePolicy(p EdgePolicy) Option {
	return func(c *Compiler) { c.edgePolicy = p }
}

// WithResolver replaces the dependency resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(c *Compiler) { c.resolver = r }
}

// WithNames replaces the canonical name resolver.
func WithNames(n *naming.Resolver) Option {
	return func(c *Compiler) { c.names = n }
}

// WithLowConfidence sets the report's low-confidence cutoff.
func WithLowConfidence(v float64) Option {
	return func(c *Compiler) { c.lowConfidence = v }
}

// WithIDGenerator sets the plan run ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Compiler) { c.ids = g }
}

// New creates a Compiler. The registry must already be frozen.
func New(reg *registry.Registry, opts ...Option) (*Compiler, error) {
	if !reg.Frozen() {
		return nil, ErrRegistryNotFrozen
	}
	c := &Compiler{
		registry:      reg,
		edgePolicy:    EdgePolicyWarn,
		lowConfidence: DefaultLowConfidence,
		ids:           UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.edgePolicy != EdgePolicyWarn && c.edgePolicy != EdgePolicyError {
		return nil, fmt.Errorf("unknown edge policy %q", c.edgePolicy)
	}
	if c.names == nil {
		c.names = naming.NewResolver(reg.AllRegisteredTypes())
	}
	if c.resolver == nil {
		c.resolver = resolver.New(resolver.WithNames(c.names))
	}
	return c, nil
}

// placedNode is a node that has been canonicalized and resolved.
type placedNode struct {
	node ir.StepNode // StepType is canonical
	spec *ir.StepSpecification
	res  *resolver.Resolution
}

// pass holds everything one walk over the graph produced.
type pass struct {
	placed       []placedNode
	bindings     []ir.ResolvedBinding
	unresolved   []*resolver.UnresolvedDependencyError
	ambiguities  []ir.Ambiguity
	inconsistent []ir.Diagnostic
	diagnostics  []ir.Diagnostic
}

// Compile compiles g into a plan. Errors unwrap to ErrInvalidGraph,
// ErrCyclicGraph, naming.ErrUnresolvedCanonicalName,
// registry.ErrUnknownStepType, ErrCompilationFailed or
// ErrCompilationCancelled.
func (c *Compiler) Compile(ctx context.Context, g ir.Graph) (*ir.CompiledPlan, error) {
	logger := ctxlog.FromContext(ctx)

	p, err := c.walk(ctx, g)
	if err != nil {
		return nil, err
	}

	failEdges := c.edgePolicy == EdgePolicyError && len(p.inconsistent) > 0
	if len(p.unresolved) > 0 || failEdges {
		logger.Warn("compilation failed",
			"graph", g.Name,
			"unresolved", len(p.unresolved),
			"edge_inconsistencies", len(p.inconsistent))
		failed := &CompilationFailedError{Unresolved: p.unresolved}
		if failEdges {
			failed.Inconsistent = p.inconsistent
		}
		return nil, failed
	}

	plan := &ir.CompiledPlan{
		RunID:       c.ids.Generate(),
		Order:       make([]ir.StepNode, len(p.placed)),
		Bindings:    p.bindings,
		Diagnostics: p.diagnostics,
		Report:      c.report(p),
	}
	for i, pn := range p.placed {
		plan.Order[i] = pn.node
	}
	if plan.Bindings == nil {
		plan.Bindings = []ir.ResolvedBinding{}
	}

	hash, err := ir.PlanHash(plan)
	if err != nil {
		return nil, err
	}
	plan.Hash = hash

	logger.Info("compiled plan",
		"graph", g.Name,
		"run_id", plan.RunID,
		"nodes", len(plan.Order),
		"bindings", len(plan.Bindings),
		"hash", plan.Hash)
	return plan, nil
}

// walk validates g and resolves every node in topological order.
// Only structural, lookup and cancellation failures are returned as errors.
func (c *Compiler) walk(ctx context.Context, g ir.Graph) (*pass, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("compiling graph", "graph", g.Name, "nodes", len(g.Nodes), "edges", len(g.Edges))

	d, err := buildDAG(g)
	if err != nil {
		return nil, err
	}
	if cycle := FindCycle(d.order, d.succ); cycle != nil {
		return nil, &CycleError{Path: cycle, Cycles: Cycles(d.order, d.succ)}
	}
	order := stableTopoOrder(d.order, d.succ, d.pred)

	p := &pass{}
	for i, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, &CancelledError{Completed: i, Next: name, Cause: err}
		}

		node := d.byName[name]
		stepType, err := c.names.CanonicalizeNode(node.StepType, node.JobType)
		if err != nil {
			return nil, &NodeError{Node: name, StepType: node.StepType, Err: err}
		}
		spec, err := c.registry.Lookup(stepType)
		if err != nil {
			return nil, &NodeError{Node: name, StepType: stepType, Err: err}
		}
		node.StepType = stepType

		dist := d.distancesTo(name)
		pool := make([]resolver.Candidate, len(p.placed))
		for j, prev := range p.placed {
			distance, ok := dist[prev.node.Name]
			if !ok {
				distance = -1
			}
			pool[j] = resolver.Candidate{
				Node:     prev.node,
				StepType: prev.node.StepType,
				Spec:     prev.spec,
				Distance: distance,
			}
		}

		// Unresolved slots are collected from res; the joined error adds nothing.
		res, _ := c.resolver.Resolve(node, spec, pool)
		p.record(node, res, dist, c.edgePolicy, c.lowConfidence)
		p.unusedEdges(node, spec, res, d.pred[name])
		p.placed = append(p.placed, placedNode{node: node, spec: spec, res: res})

		logger.Debug("resolved node",
			"node", name,
			"step_type", stepType,
			"bindings", len(res.Bindings),
			"unresolved", len(res.Unresolved))
	}
	return p, nil
}

// record accumulates one node's resolution into the pass.
func (p *pass) record(node ir.StepNode, res *resolver.Resolution, dist map[string]int, policy EdgePolicy, lowConfidence float64) {
	p.bindings = append(p.bindings, res.Bindings...)
	p.unresolved = append(p.unresolved, res.Unresolved...)
	p.ambiguities = append(p.ambiguities, res.Ambiguities...)

	for _, b := range res.Bindings {
		if _, ancestor := dist[b.Producer]; !ancestor {
			sev := ir.SeverityWarning
			if policy == EdgePolicyError {
				sev = ir.SeverityError
			}
			d := ir.Diagnostic{
				Kind:        ir.KindEdgeInconsistency,
				Severity:    sev,
				Node:        node.Name,
				StepType:    node.StepType,
				Slot:        b.Input,
				Message:     fmt.Sprintf("input %q is bound to %s.%s but %q is not an ancestor of %q", b.Input, b.Producer, b.Output, b.Producer, node.Name),
				Remediation: fmt.Sprintf("add an edge %s → %s or a path between them", b.Producer, node.Name),
				Details:     map[string]string{"producer": b.Producer, "output": b.Output},
			}
			p.inconsistent = append(p.inconsistent, d)
			p.diagnostics = append(p.diagnostics, d)
		}
		if b.Confidence < lowConfidence {
			p.diagnostics = append(p.diagnostics, ir.Diagnostic{
				Kind:     ir.KindLowConfidence,
				Severity: ir.SeverityInfo,
				Node:     node.Name,
				StepType: node.StepType,
				Slot:     b.Input,
				Message:  fmt.Sprintf("input %q bound to %s.%s with confidence %.2f", b.Input, b.Producer, b.Output, b.Confidence),
			})
		}
	}

	for _, a := range res.Ambiguities {
		p.diagnostics = append(p.diagnostics, ir.Diagnostic{
			Kind:     ir.KindAmbiguousBinding,
			Severity: ir.SeverityInfo,
			Node:     node.Name,
			StepType: node.StepType,
			Slot:     a.Input,
			Message: fmt.Sprintf("input %q: %s.%s (%.2f) chosen over %s.%s (%.2f)", a.Input,
				a.Winner.Producer, a.Winner.Output, a.Winner.Score,
				a.RunnerUp.Producer, a.RunnerUp.Output, a.RunnerUp.Score),
			Remediation: "declare an alias or compatible source to make the intended producer explicit",
		})
	}
}

// unusedEdges warns about explicit edges into node that feed none of its
// inputs. Nodes without inputs and nodes with unresolved slots are skipped.
// These warnings never fail compilation.
func (p *pass) unusedEdges(node ir.StepNode, spec *ir.StepSpecification, res *resolver.Resolution, preds []string) {
	if len(spec.Dependencies) == 0 || len(res.Unresolved) > 0 {
		return
	}
	for _, from := range preds {
		used := slices.ContainsFunc(res.Bindings, func(b ir.ResolvedBinding) bool {
			return b.Producer == from
		})
		if used {
			continue
		}
		p.diagnostics = append(p.diagnostics, ir.Diagnostic{
			Kind:        ir.KindEdgeInconsistency,
			Severity:    ir.SeverityWarning,
			Node:        node.Name,
			StepType:    node.StepType,
			Message:     fmt.Sprintf("edge %s → %s feeds no input of %q", from, node.Name, node.Name),
			Remediation: fmt.Sprintf("remove the edge or give %s an output that %s consumes", from, node.Name),
			Details:     map[string]string{"producer": from},
		})
	}
}

// report summarizes resolution quality.
func (c *Compiler) report(p *pass) ir.PlanReport {
	r := ir.PlanReport{
		BindingCount:        len(p.bindings),
		Ambiguous:           p.ambiguities,
		EdgeInconsistencies: len(p.inconsistent),
	}
	var total float64
	for _, b := range p.bindings {
		total += b.Confidence
		if b.Confidence < c.lowConfidence {
			r.LowConfidence = append(r.LowConfidence, b)
		}
	}
	if len(p.bindings) > 0 {
		r.AverageConfidence = total / float64(len(p.bindings))
	}
	return r
}
