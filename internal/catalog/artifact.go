package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"

	"github.com/roach88/stepwire/internal/alignment"
)

// CompileContract parses a contract entry. Paths may be given as a bare
// string or as {path, data_type}.
func CompileContract(name string, v cue.Value) (*alignment.Contract, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("contract", err)
	}

	c := &alignment.Contract{Name: name}
	var err error
	if c.StepType, err = optionalString(v, "step_type"); err != nil {
		return nil, err
	}
	if c.EntryPoint, err = optionalString(v, "entry_point"); err != nil {
		return nil, err
	}
	if c.Inputs, err = compilePaths(v, "inputs"); err != nil {
		return nil, err
	}
	if c.Outputs, err = compilePaths(v, "outputs"); err != nil {
		return nil, err
	}
	if c.RequiredEnv, err = optionalStrings(v, "env.required"); err != nil {
		return nil, err
	}

	err = structFields(v, "env.optional", func(key string, dv cue.Value) error {
		def, err := dv.String()
		if err != nil {
			return &CompileError{Field: "env.optional." + key, Message: "default must be a string", Pos: dv.Pos()}
		}
		if c.OptionalEnv == nil {
			c.OptionalEnv = make(map[string]string)
		}
		c.OptionalEnv[key] = def
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = structFields(v, "arguments", func(arg string, av cue.Value) error {
		required, err := optionalBool(av, "required", false)
		if err != nil {
			return prefixField("arguments."+arg, err)
		}
		c.Arguments = append(c.Arguments, alignment.ContractArgument{Name: arg, Required: required})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

func compilePaths(v cue.Value, field string) ([]alignment.ContractPath, error) {
	var paths []alignment.ContractPath
	err := structFields(v, field, func(logical string, pv cue.Value) error {
		cp := alignment.ContractPath{LogicalName: logical}
		if s, err := pv.String(); err == nil {
			cp.Path = s
			paths = append(paths, cp)
			return nil
		}
		var err error
		if cp.Path, err = optionalString(pv, "path"); err != nil {
			return prefixField(field+"."+logical, err)
		}
		if cp.Path == "" {
			return &CompileError{Field: field + "." + logical, Message: "must be a path string or {path, data_type}", Pos: pv.Pos()}
		}
		if cp.DataType, err = optionalString(pv, "data_type"); err != nil {
			return prefixField(field+"."+logical, err)
		}
		paths = append(paths, cp)
		return nil
	})
	return paths, err
}

// CompileScript parses a script entry. Exactly one of source or path must be
// set; path is read relative to baseDir.
func CompileScript(name string, v cue.Value, baseDir string) (*alignment.Script, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("script", err)
	}

	s := &alignment.Script{Name: name}
	var err error
	if s.StepType, err = optionalString(v, "step_type"); err != nil {
		return nil, err
	}
	source, err := optionalString(v, "source")
	if err != nil {
		return nil, err
	}
	path, err := optionalString(v, "path")
	if err != nil {
		return nil, err
	}

	switch {
	case source != "" && path != "":
		return nil, &CompileError{Field: "script", Message: "set source or path, not both", Pos: v.Pos()}
	case source != "":
		s.Source = source
	case path != "":
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("script.%s: %v", name, err), Pos: v.Pos()}
		}
		s.Source = string(data)
	default:
		return nil, &CompileError{Field: "script", Message: "source or path is required", Pos: v.Pos()}
	}
	return s, nil
}

// CompileBuilder parses a builder entry.
func CompileBuilder(name string, v cue.Value) (*alignment.Builder, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("builder", err)
	}

	b := &alignment.Builder{Name: name}
	var err error
	if b.StepType, err = optionalString(v, "step_type"); err != nil {
		return nil, err
	}
	if b.RequiredFields, err = optionalStrings(v, "required_fields"); err != nil {
		return nil, err
	}
	if b.AccessedFields, err = optionalStrings(v, "accessed_fields"); err != nil {
		return nil, err
	}
	return b, nil
}

// CompileConfig parses a config entry.
func CompileConfig(name string, v cue.Value) (*alignment.Config, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError("config", err)
	}

	c := &alignment.Config{Name: name}
	var err error
	if c.StepType, err = optionalString(v, "step_type"); err != nil {
		return nil, err
	}
	err = structFields(v, "fields", func(field string, fv cue.Value) error {
		required, err := optionalBool(fv, "required", false)
		if err != nil {
			return prefixField("fields."+field, err)
		}
		c.Fields = append(c.Fields, alignment.ConfigField{Name: field, Required: required})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
