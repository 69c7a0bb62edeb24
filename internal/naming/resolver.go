package naming

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/agext/levenshtein"
)

// ErrUnresolvedCanonicalName is returned when no strategy maps a raw name
// to exactly one registered step type.
var ErrUnresolvedCanonicalName = errors.New("unresolved canonical name")

// UnresolvedNameError carries what was tried so callers can report it.
type UnresolvedNameError struct {
	RawName     string
	Attempts    []string
	Suggestions []string
}

func (e *UnresolvedNameError) Error() string {
	msg := fmt.Sprintf("cannot resolve %q to a registered step type (tried: %s)",
		e.RawName, strings.Join(e.Attempts, "; "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *UnresolvedNameError) Unwrap() error { return ErrUnresolvedCanonicalName }

// Resolver canonicalizes names against a fixed set of registry keys.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	keys       []string
	exact      map[string]bool
	compact    map[string][]string
	signatures map[string][]string
	abbrev     map[string]string
	jobTypes   []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAbbreviations adds abbreviation expansions on top of the defaults.
func WithAbbreviations(extra map[string]string) Option {
	return func(r *Resolver) {
		for k, v := range extra {
			r.abbrev[strings.ToLower(k)] = strings.ToLower(v)
		}
	}
}

// WithJobTypes adds job types on top of the defaults.
func WithJobTypes(extra ...string) Option {
	return func(r *Resolver) {
		for _, jt := range extra {
			jt = strings.ToLower(jt)
			if !slices.Contains(r.jobTypes, jt) {
				r.jobTypes = append(r.jobTypes, jt)
			}
		}
	}
}

// NewResolver indexes keys. Keys are typically registry.AllRegisteredTypes()
// taken after the registry is frozen.
func NewResolver(keys []string, opts ...Option) *Resolver {
	r := &Resolver{
		keys:       slices.Sorted(slices.Values(keys)),
		exact:      make(map[string]bool, len(keys)),
		compact:    make(map[string][]string),
		signatures: make(map[string][]string),
		abbrev:     maps.Clone(DefaultAbbreviations),
		jobTypes:   slices.Clone(DefaultJobTypes),
	}
	for _, opt := range opts {
		opt(r)
	}
	// Longer job types first so "calibration" is not shadowed by a shorter suffix.
	slices.SortStableFunc(r.jobTypes, func(a, b string) int { return len(b) - len(a) })

	for _, k := range r.keys {
		r.exact[k] = true
		c := Compact(k)
		r.compact[c] = append(r.compact[c], k)
		sig := signature(expand(Split(k), r.abbrev))
		r.signatures[sig] = append(r.signatures[sig], k)
	}
	return r
}

// Keys returns the indexed keys in sorted order.
func (r *Resolver) Keys() []string {
	return slices.Clone(r.keys)
}

// Canonicalize maps raw to a registered step type. The result is
// deterministic and Canonicalize(k) == k for every registered key k.
func (r *Resolver) Canonicalize(raw string) (string, error) {
	var attempts []string

	if key, ok := r.direct(raw, &attempts); ok {
		return key, nil
	}

	base, jobType := r.SplitJobType(raw)
	if jobType != "" {
		attempts = append(attempts, fmt.Sprintf("strip job type %q", jobType))
		if key, ok := r.direct(base, &attempts); ok {
			return key, nil
		}
	}

	if key, ok := r.byTokens(raw, &attempts); ok {
		return key, nil
	}
	if jobType != "" {
		if key, ok := r.byTokens(base, &attempts); ok {
			return key, nil
		}
	}

	return "", &UnresolvedNameError{
		RawName:     raw,
		Attempts:    attempts,
		Suggestions: r.suggest(raw),
	}
}

// CanonicalizeNode resolves a node's step type, preferring the job-type
// variant ("TabularPreprocessing" + "training") when one is registered.
func (r *Resolver) CanonicalizeNode(stepType, jobType string) (string, error) {
	if jobType == "" {
		return r.Canonicalize(stepType)
	}
	key, err := r.Canonicalize(stepType + "_" + jobType)
	if err == nil {
		return key, nil
	}
	key, err2 := r.Canonicalize(stepType)
	if err2 == nil {
		return key, nil
	}

	var first, second *UnresolvedNameError
	if errors.As(err, &first) && errors.As(err2, &second) {
		second.Attempts = append(first.Attempts, second.Attempts...)
	}
	return "", err2
}

// SplitJobType removes a trailing job type from raw, returning the base
// name and the job type found. jobType is empty when raw has none.
func (r *Resolver) SplitJobType(raw string) (base, jobType string) {
	for _, jt := range r.jobTypes {
		if len(raw) <= len(jt) {
			continue
		}
		tail := raw[len(raw)-len(jt):]
		if !strings.EqualFold(tail, jt) {
			continue
		}
		head := raw[:len(raw)-len(jt)]
		trimmed := strings.TrimRightFunc(head, isSeparator)
		// Require a word boundary: a separator or a capital letter starting the suffix.
		if trimmed == head && !(tail[0] >= 'A' && tail[0] <= 'Z') {
			continue
		}
		if trimmed == "" {
			continue
		}
		return trimmed, jt
	}
	return raw, ""
}

// direct tries an exact key match, then a compact-form match.
func (r *Resolver) direct(name string, attempts *[]string) (string, bool) {
	*attempts = append(*attempts, fmt.Sprintf("exact %q", name))
	if r.exact[name] {
		return name, true
	}

	c := Compact(name)
	*attempts = append(*attempts, fmt.Sprintf("normalized %q", c))
	switch matches := r.compact[c]; len(matches) {
	case 1:
		return matches[0], true
	case 0:
	default:
		*attempts = append(*attempts, fmt.Sprintf("normalized %q is ambiguous: %s", c, strings.Join(matches, ", ")))
	}
	return "", false
}

// byTokens tries the order-insensitive, abbreviation-expanded token match.
func (r *Resolver) byTokens(name string, attempts *[]string) (string, bool) {
	sig := signature(expand(Split(name), r.abbrev))
	*attempts = append(*attempts, fmt.Sprintf("tokens [%s]", sig))
	switch matches := r.signatures[sig]; len(matches) {
	case 1:
		return matches[0], true
	case 0:
	default:
		*attempts = append(*attempts, fmt.Sprintf("tokens [%s] are ambiguous: %s", sig, strings.Join(matches, ", ")))
	}
	return "", false
}

// suggest returns up to three keys whose compact form is similar to raw.
func (r *Resolver) suggest(raw string) []string {
	type scored struct {
		key string
		sim float64
	}
	c := Compact(raw)
	var candidates []scored
	for _, k := range r.keys {
		if sim := levenshtein.Similarity(c, Compact(k), nil); sim >= 0.6 {
			candidates = append(candidates, scored{k, sim})
		}
	}
	slices.SortFunc(candidates, func(a, b scored) int {
		if a.sim != b.sim {
			if a.sim > b.sim {
				return -1
			}
			return 1
		}
		return strings.Compare(a.key, b.key)
	})

	var out []string
	for i := 0; i < len(candidates) && i < 3; i++ {
		out = append(out, candidates[i].key)
	}
	return out
}
