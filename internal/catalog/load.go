package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/stepwire/internal/alignment"
	"github.com/roach88/stepwire/internal/ir"
	"github.com/roach88/stepwire/internal/registry"
)

// LoadMode controls how errors are handled during catalogue loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Catalog is the content of one or more catalogue directories.
type Catalog struct {
	Specs     []*ir.StepSpecification // declaration order
	Artifacts alignment.Artifacts
	FileCount int
	// Warnings holds non-fatal findings such as identical re-declarations.
	Warnings []ir.Diagnostic
}

// Load reads the CUE package in dir.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func Load(dir string, mode LoadMode) (*Catalog, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalogue directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalogue directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	cat, errs := FromValue(value, dir, mode)
	cat.FileCount = len(cueFiles)
	return cat, errs
}

// LoadAll loads several catalogue directories and merges them in order.
func LoadAll(dirs []string, mode LoadMode) (*Catalog, []error) {
	merged := &Catalog{}
	var errs []error
	for _, dir := range dirs {
		cat, loadErrs := Load(dir, mode)
		errs = append(errs, loadErrs...)
		if mode == LoadModeFailFast && len(errs) > 0 {
			return merged, errs
		}
		if cat == nil {
			continue
		}
		errs = append(errs, merged.Merge(cat)...)
		if mode == LoadModeFailFast && len(errs) > 0 {
			return merged, errs
		}
	}
	return merged, errs
}

// FromValue extracts a catalogue from an already built CUE value. baseDir
// anchors relative script paths.
func FromValue(value cue.Value, baseDir string, mode LoadMode) (*Catalog, []error) {
	cat := &Catalog{}
	l := &loader{value: value, mode: mode}

	l.section("step", func(name string, v cue.Value) error {
		spec, err := CompileStep(name, v)
		if err != nil {
			return err
		}
		cat.Specs = append(cat.Specs, spec)
		return nil
	})
	l.section("contract", func(name string, v cue.Value) error {
		c, err := CompileContract(name, v)
		if err != nil {
			return err
		}
		cat.Artifacts.Contracts = append(cat.Artifacts.Contracts, *c)
		return nil
	})
	l.section("script", func(name string, v cue.Value) error {
		s, err := CompileScript(name, v, baseDir)
		if err != nil {
			return err
		}
		cat.Artifacts.Scripts = append(cat.Artifacts.Scripts, *s)
		return nil
	})
	l.section("builder", func(name string, v cue.Value) error {
		b, err := CompileBuilder(name, v)
		if err != nil {
			return err
		}
		cat.Artifacts.Builders = append(cat.Artifacts.Builders, *b)
		return nil
	})
	l.section("config", func(name string, v cue.Value) error {
		c, err := CompileConfig(name, v)
		if err != nil {
			return err
		}
		cat.Artifacts.Configs = append(cat.Artifacts.Configs, *c)
		return nil
	})

	if cat.empty() && len(l.errs) == 0 {
		l.errs = append(l.errs, &LoadError{Code: ErrCodeEmpty, Message: "no steps or artifacts found in catalogue"})
	}
	return cat, l.errs
}

func (c *Catalog) empty() bool {
	a := c.Artifacts
	return len(c.Specs) == 0 && len(a.Contracts) == 0 && len(a.Scripts) == 0 &&
		len(a.Builders) == 0 && len(a.Configs) == 0
}

// loader walks top-level sections, honouring the load mode.
type loader struct {
	value cue.Value
	mode  LoadMode
	errs  []error
}

func (l *loader) stopped() bool {
	return l.mode == LoadModeFailFast && len(l.errs) > 0
}

func (l *loader) section(name string, compile func(string, cue.Value) error) {
	if l.stopped() {
		return
	}
	v := l.value.LookupPath(cue.ParsePath(name))
	if !v.Exists() {
		return
	}
	iter, err := v.Fields()
	if err != nil {
		l.errs = append(l.errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating %s: %v", name, err), Pos: v.Pos()})
		return
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if err := compile(label, iter.Value()); err != nil {
			l.errs = append(l.errs, toLoadError(err, name+"."+label))
			if l.stopped() {
				return
			}
		}
	}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Merge appends other's content. A step type declared identically in both
// is kept once and recorded as a warning; a differing re-declaration is a
// conflict and the first declaration wins.
func (c *Catalog) Merge(other *Catalog) []error {
	seen := make(map[string]string, len(c.Specs))
	for _, s := range c.Specs {
		h, err := ir.SpecificationHash(s)
		if err != nil {
			return []error{err}
		}
		seen[s.StepType] = h
	}

	var errs []error
	for _, s := range other.Specs {
		h, err := ir.SpecificationHash(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prev, dup := seen[s.StepType]
		switch {
		case !dup:
			seen[s.StepType] = h
			c.Specs = append(c.Specs, s)
		case prev != h:
			errs = append(errs, &LoadError{
				Code:    ErrCodeConflict,
				Message: fmt.Sprintf("step.%s: conflicting re-declaration", s.StepType),
			})
		default:
			c.Warnings = append(c.Warnings, ir.Diagnostic{
				Kind:        ir.KindDuplicateSpecification,
				Severity:    ir.SeverityWarning,
				StepType:    s.StepType,
				Message:     fmt.Sprintf("step.%s: identical re-declaration ignored", s.StepType),
				Remediation: "declare each step type in one catalogue only",
				Details:     map[string]string{"code": ErrCodeConflict},
			})
		}
	}

	c.Artifacts.Contracts = append(c.Artifacts.Contracts, other.Artifacts.Contracts...)
	c.Artifacts.Scripts = append(c.Artifacts.Scripts, other.Artifacts.Scripts...)
	c.Artifacts.Builders = append(c.Artifacts.Builders, other.Artifacts.Builders...)
	c.Artifacts.Configs = append(c.Artifacts.Configs, other.Artifacts.Configs...)
	c.Warnings = append(c.Warnings, other.Warnings...)
	c.FileCount += other.FileCount
	return errs
}

// Registry registers every specification into a new registry and freezes
// it. Invalid specifications are reported and skipped.
func (c *Catalog) Registry() (*registry.Registry, []error) {
	reg := registry.New()
	var errs []error
	for _, s := range c.Specs {
		if err := reg.Register(s.StepType, s); err != nil {
			errs = append(errs, err)
		}
	}
	reg.Freeze()
	return reg, errs
}
