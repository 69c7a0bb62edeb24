package resolver

import (
	"strings"

	"github.com/roach88/stepwire/internal/ir"
)

// DependencyPattern says where a dependency is expected to come from.
type DependencyPattern string

const (
	PatternPipeline      DependencyPattern = "pipeline"      // produced by another step
	PatternExternal      DependencyPattern = "external"      // supplied by the caller, e.g. an S3 URI
	PatternConfiguration DependencyPattern = "configuration" // supplied by step configuration
	PatternEnvironment   DependencyPattern = "environment"   // supplied by the runtime environment
)

// SourceExternal in CompatibleSources marks a dependency as caller supplied.
const SourceExternal = "EXTERNAL"

var knownExternal = map[string]bool{
	"pretrained_model_path":  true,
	"hyperparameters_s3_uri": true,
}

// Classify returns the pattern of dep. Only PatternPipeline dependencies
// take part in resolution checks.
func Classify(dep ir.DependencySpec) DependencyPattern {
	name := strings.ToLower(dep.LogicalName)

	if len(dep.CompatibleSources) == 1 && strings.EqualFold(dep.CompatibleSources[0], SourceExternal) {
		return PatternExternal
	}
	if strings.HasSuffix(name, "_s3_uri") || knownExternal[name] {
		return PatternExternal
	}

	if strings.HasPrefix(name, "config_") {
		return PatternConfiguration
	}
	if normType(dep.Type) == ir.TypeHyperparameters && len(dep.CompatibleSources) == 0 {
		return PatternConfiguration
	}

	if strings.HasPrefix(name, "env_") || strings.Contains(name, "environment_") {
		return PatternEnvironment
	}
	return PatternPipeline
}
