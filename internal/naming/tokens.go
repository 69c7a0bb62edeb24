package naming

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultAbbreviations expands short forms that appear in file-derived names.
var DefaultAbbreviations = map[string]string{
	"xgb":        "xgboost",
	"eval":       "evaluation",
	"preprocess": "preprocessing",
	"calib":      "calibration",
	"reg":        "registration",
}

// DefaultJobTypes are the job-type variants a step type may be suffixed with.
var DefaultJobTypes = []string{"training", "validation", "testing", "calibration"}

// compoundWords are rejoined when a capitalization split breaks them apart,
// e.g. "XGBoost" splits to "xg" + "boost".
var compoundWords = map[string]bool{
	"xgboost":    true,
	"pytorch":    true,
	"tensorflow": true,
	"sklearn":    true,
	"lightgbm":   true,
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == '/' || unicode.IsSpace(r)
}

// fold case-folds s after NFC normalization. A Caser is stateful, so a
// fresh one is used per call.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// Compact folds case and removes separators: "Tabular_Preprocessing" and
// "tabularpreprocessing" compact identically.
func Compact(s string) string {
	var b strings.Builder
	for _, r := range fold(s) {
		if !isSeparator(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Split breaks s into lower-case words on separators and capitalization
// boundaries. A run of capitals is its own word ("ModelEvalXGB" gives
// model, eval, xgb) and compound words split by that rule are rejoined.
func Split(s string) []string {
	runes := []rune(norm.NFC.String(s))
	var words []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			words = append(words, fold(string(cur)))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}
		if unicode.IsUpper(r) && len(cur) > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()

	return mergeCompounds(words)
}

func mergeCompounds(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	out := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if i+1 < len(words) && compoundWords[words[i]+words[i+1]] {
			out = append(out, words[i]+words[i+1])
			i++
			continue
		}
		out = append(out, words[i])
	}
	return out
}

// expand applies abbreviation expansion to each word.
func expand(words []string, abbrev map[string]string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		if full, ok := abbrev[w]; ok {
			out[i] = full
		} else {
			out[i] = w
		}
	}
	return out
}

// signature is the order-insensitive token form used for compound matching.
func signature(words []string) string {
	sorted := slices.Clone(words)
	slices.Sort(sorted)
	return strings.Join(sorted, " ")
}

var (
	filePrefixes = []string{"builder_", "config_", "contract_", "spec_"}
	fileSuffixes = []string{"_step", "_spec", "_contract", "_builder", "_config", "_script"}
)

// FromFileName derives a raw step name from an artifact file path, e.g.
// "scripts/builder_xgboost_training_step.py" gives "xgboost_training".
// The result still needs Canonicalize.
func FromFileName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	lower := strings.ToLower(name)

	for _, p := range filePrefixes {
		if strings.HasPrefix(lower, p) && len(name) > len(p) {
			name, lower = name[len(p):], lower[len(p):]
			break
		}
	}
	// Suffixes can stack: "foo_contract_step".
	for changed := true; changed; {
		changed = false
		for _, s := range fileSuffixes {
			if strings.HasSuffix(lower, s) && len(name) > len(s) {
				name, lower = name[:len(name)-len(s)], lower[:len(lower)-len(s)]
				changed = true
			}
		}
	}
	return name
}
