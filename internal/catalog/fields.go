package catalog

import (
	"cuelang.org/go/cue"
)

// optionalString reads v.name as a string. A missing field yields "".
func optionalString(v cue.Value, name string) (string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Field: name, Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

// optionalBool reads v.name as a bool, falling back to def.
func optionalBool(v cue.Value, name string, def bool) (bool, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return def, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, &CompileError{Field: name, Message: "must be a bool", Pos: f.Pos()}
	}
	return b, nil
}

// optionalStrings reads v.name as a list of strings.
func optionalStrings(v cue.Value, name string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, &CompileError{Field: name, Message: "must be a list of strings", Pos: f.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: name, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

// structFields iterates the regular fields of v.name in declaration order.
// A missing field calls fn zero times.
func structFields(v cue.Value, name string, fn func(label string, fv cue.Value) error) error {
	f := v.LookupPath(cue.ParsePath(name))
	if !f.Exists() {
		return nil
	}
	return eachField(f, name, fn)
}

func eachField(v cue.Value, name string, fn func(label string, fv cue.Value) error) error {
	iter, err := v.Fields()
	if err != nil {
		return &CompileError{Field: name, Message: "must be a struct", Pos: v.Pos()}
	}
	for iter.Next() {
		if err := fn(iter.Selector().Unquoted(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}
