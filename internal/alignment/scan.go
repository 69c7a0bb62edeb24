package alignment

import (
	"path"
	"regexp"
	"slices"
	"strings"
)

var (
	envIndexRe = regexp.MustCompile(`os\.environ\[\s*["']([A-Za-z_][A-Za-z0-9_]*)["']\s*\]`)
	envGetRe   = regexp.MustCompile(`os\.(?:environ\.get|getenv)\(\s*["']([A-Za-z_][A-Za-z0-9_]*)["']\s*(,)?`)
	callRe     = regexp.MustCompile(`add_argument\(`)
	flagRe     = regexp.MustCompile(`^\s*["']--([A-Za-z0-9][A-Za-z0-9_-]*)["']`)
	requiredRe = regexp.MustCompile(`required\s*=\s*True`)
)

// EnvAccess is one environment variable read.
type EnvAccess struct {
	Name       string
	Line       int
	HasDefault bool
}

// ArgumentDef is one argparse argument definition.
type ArgumentDef struct {
	Name     string // CLI form
	Line     int
	Required bool
}

// ScriptUsage is what a static scan found in a script.
type ScriptUsage struct {
	Paths     []string // cleaned, sorted, unique
	Env       []EnvAccess
	Arguments []ArgumentDef
}

// ScanScript finds container path literals under prefixes, environment
// variable reads and argparse arguments in source. Calls may span lines.
// It is a textual scan; paths assembled at runtime are not seen.
func ScanScript(source string, prefixes []string) ScriptUsage {
	var usage ScriptUsage
	src := stripComments(source)
	lineOf := lineIndex(src)

	seen := make(map[string]bool)
	for _, prefix := range prefixes {
		re := regexp.MustCompile(`["'](` + regexp.QuoteMeta(prefix) + `[^"'\s]*)["']`)
		for _, m := range re.FindAllStringSubmatch(src, -1) {
			p := NormalizePath(m[1])
			if !seen[p] {
				seen[p] = true
				usage.Paths = append(usage.Paths, p)
			}
		}
	}
	slices.Sort(usage.Paths)

	type located struct {
		at  int
		env EnvAccess
	}
	var env []located
	for _, m := range envIndexRe.FindAllStringSubmatchIndex(src, -1) {
		env = append(env, located{m[0], EnvAccess{Name: src[m[2]:m[3]], Line: lineOf(m[0])}})
	}
	for _, m := range envGetRe.FindAllStringSubmatchIndex(src, -1) {
		env = append(env, located{m[0], EnvAccess{Name: src[m[2]:m[3]], Line: lineOf(m[0]), HasDefault: m[4] >= 0}})
	}
	slices.SortFunc(env, func(a, b located) int { return a.at - b.at })
	for _, e := range env {
		usage.Env = append(usage.Env, e.env)
	}

	for _, m := range callRe.FindAllStringIndex(src, -1) {
		args := callArgs(src, m[1])
		flag := flagRe.FindStringSubmatch(args)
		if flag == nil {
			continue
		}
		usage.Arguments = append(usage.Arguments, ArgumentDef{
			Name:     flag[1],
			Line:     lineOf(m[0]),
			Required: requiredRe.MatchString(args[len(flag[0]):]),
		})
	}
	return usage
}

// stripComments blanks out comment lines, keeping line breaks so offsets
// still map to the original line numbers.
func stripComments(source string) string {
	lines := strings.Split(source, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

// lineIndex returns a function mapping a byte offset in src to its
// 1-based line number.
func lineIndex(src string) func(int) int {
	var breaks []int
	for i := range len(src) {
		if src[i] == '\n' {
			breaks = append(breaks, i)
		}
	}
	return func(offset int) int {
		n, _ := slices.BinarySearch(breaks, offset)
		return n + 1
	}
}

// callArgs returns the argument text of a call whose opening parenthesis
// ends just before open, up to the matching close parenthesis. Brackets
// inside string literals are ignored. An unterminated call runs to the end.
func callArgs(src string, open int) string {
	depth := 1
	var quote byte
	for i := open; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
			if depth == 0 {
				return src[open:i]
			}
		}
	}
	return src[open:]
}

// NormalizePath cleans a container path for comparison.
func NormalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}

// logicalNamePrefixes are container directories whose first child names a slot.
var logicalNamePrefixes = []string{
	"/opt/ml/processing/input/",
	"/opt/ml/processing/output/",
	"/opt/ml/input/data/",
	"/opt/ml/model/",
	"/opt/ml/output/",
}

// LogicalNameFromPath infers a slot name from a container path:
// "/opt/ml/processing/input/data/train.csv" gives "data".
func LogicalNameFromPath(p string) (string, bool) {
	p = NormalizePath(p)
	for _, prefix := range logicalNamePrefixes {
		if rest, ok := strings.CutPrefix(p, prefix); ok {
			first, _, _ := strings.Cut(strings.Trim(rest, "/"), "/")
			if first != "" {
				return first, true
			}
		}
	}
	return "", false
}

// pathCovers reports whether used refers to declared or something under it.
func pathCovers(declared, used string) bool {
	return used == declared || strings.HasPrefix(used, declared+"/")
}
