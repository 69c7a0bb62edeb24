package catalog

import (
	"cuelang.org/go/cue"

	"github.com/roach88/stepwire/internal/ir"
)

// CompileStep parses a CUE value into a StepSpecification. stepType is the
// struct label the value was found under.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`step: Package: { node_type: "internal", ... }`)
//	spec, err := CompileStep("Package", v.LookupPath(cue.ParsePath("step.Package")))
func CompileStep(stepType string, v cue.Value) (*ir.StepSpecification, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("step", err)
	}

	spec := &ir.StepSpecification{StepType: stepType}

	nodeType, err := optionalString(v, "node_type")
	if err != nil {
		return nil, err
	}
	spec.NodeType = ir.NodeType(nodeType)

	err = structFields(v, "dependencies", func(name string, dv cue.Value) error {
		dep, err := compileDependency(name, dv)
		if err != nil {
			return err
		}
		spec.Dependencies = append(spec.Dependencies, dep)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = structFields(v, "outputs", func(name string, ov cue.Value) error {
		out, err := compileOutput(name, ov)
		if err != nil {
			return err
		}
		spec.Outputs = append(spec.Outputs, out)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func compileDependency(name string, v cue.Value) (ir.DependencySpec, error) {
	dep := ir.DependencySpec{LogicalName: name}

	typ, err := optionalString(v, "type")
	if err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	dep.Type = ir.SemanticType(typ)

	// Dependencies are required unless declared otherwise.
	if dep.Required, err = optionalBool(v, "required", true); err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	if dep.Aliases, err = optionalStrings(v, "aliases"); err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	if dep.CompatibleSources, err = optionalStrings(v, "compatible_sources"); err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	if dep.SemanticKeywords, err = optionalStrings(v, "semantic_keywords"); err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	if dep.DataType, err = optionalString(v, "data_type"); err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	if dep.Description, err = optionalString(v, "description"); err != nil {
		return dep, prefixField("dependencies."+name, err)
	}
	return dep, nil
}

func compileOutput(name string, v cue.Value) (ir.OutputSpec, error) {
	out := ir.OutputSpec{LogicalName: name}

	typ, err := optionalString(v, "type")
	if err != nil {
		return out, prefixField("outputs."+name, err)
	}
	out.Type = ir.SemanticType(typ)

	if out.Aliases, err = optionalStrings(v, "aliases"); err != nil {
		return out, prefixField("outputs."+name, err)
	}
	if out.PropertyPath, err = optionalString(v, "property_path"); err != nil {
		return out, prefixField("outputs."+name, err)
	}
	if out.DataType, err = optionalString(v, "data_type"); err != nil {
		return out, prefixField("outputs."+name, err)
	}
	if out.Description, err = optionalString(v, "description"); err != nil {
		return out, prefixField("outputs."+name, err)
	}
	return out, nil
}

// prefixField qualifies a CompileError's field with its enclosing slot.
func prefixField(prefix string, err error) error {
	if ce, ok := err.(*CompileError); ok {
		return &CompileError{Field: prefix + "." + ce.Field, Message: ce.Message, Pos: ce.Pos}
	}
	return err
}
