package alignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleScript = `import argparse
import os

INPUT_DIR = "/opt/ml/processing/input/data"
OUTPUT_DIR = '/opt/ml/processing/output/'
# MODEL_DIR = "/opt/ml/model"

def main():
    parser = argparse.ArgumentParser()
    parser.add_argument("--job-type", type=str, required=True)
    parser.add_argument("--verbose", action="store_true")
    args = parser.parse_args()
    region = os.environ["AWS_REGION"]
    label = os.environ.get("LABEL_FIELD", "label")
    debug = os.getenv("DEBUG")
    again = open("/opt/ml/processing/input/data/train.csv")
`

// TestScanScript tests path, environment and argument extraction.
func TestScanScript(t *testing.T) {
	usage := ScanScript(sampleScript, DefaultPathPrefixes)

	assert.Equal(t, []string{
		"/opt/ml/processing/input/data",
		"/opt/ml/processing/input/data/train.csv",
		"/opt/ml/processing/output",
	}, usage.Paths, "comment lines are skipped and trailing slashes cleaned")

	assert.Equal(t, []EnvAccess{
		{Name: "AWS_REGION", Line: 13},
		{Name: "LABEL_FIELD", Line: 14, HasDefault: true},
		{Name: "DEBUG", Line: 15},
	}, usage.Env)

	assert.Equal(t, []ArgumentDef{
		{Name: "job-type", Line: 10, Required: true},
		{Name: "verbose", Line: 11},
	}, usage.Arguments)
}

// TestScanScript_MultiLine tests calls whose arguments continue on later lines.
func TestScanScript_MultiLine(t *testing.T) {
	src := `parser.add_argument(
    "--job-type",
    help="one of (training, validation)",
    required=True,
)
parser.add_argument("--seed", type=int,
                    default=0)
parser.add_argument("--mode",
    choices=["a", "b"], required=True)
# parser.add_argument("--ignored", required=True)
label = os.environ.get(
    "LABEL_FIELD",
    "label",
)
region = os.getenv(
    "AWS_REGION"
)
`
	usage := ScanScript(src, DefaultPathPrefixes)

	assert.Equal(t, []ArgumentDef{
		{Name: "job-type", Line: 1, Required: true},
		{Name: "seed", Line: 6},
		{Name: "mode", Line: 8, Required: true},
	}, usage.Arguments)

	assert.Equal(t, []EnvAccess{
		{Name: "LABEL_FIELD", Line: 11, HasDefault: true},
		{Name: "AWS_REGION", Line: 15},
	}, usage.Env)
}

// TestScanScript_CustomPrefix tests that only configured prefixes are collected.
func TestScanScript_CustomPrefix(t *testing.T) {
	src := `a = "/data/in/x.csv"
b = "/opt/ml/model"`
	usage := ScanScript(src, []string{"/data/"})
	assert.Equal(t, []string{"/data/in/x.csv"}, usage.Paths)
}

// TestLogicalNameFromPath tests slot name inference from container paths.
func TestLogicalNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/opt/ml/processing/input/data", "data", true},
		{"/opt/ml/processing/input/data/train.csv", "data", true},
		{"/opt/ml/processing/output/metrics/", "metrics", true},
		{"/opt/ml/input/data/train", "train", true},
		{"/opt/ml/model", "", false},
		{"/tmp/scratch", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LogicalNameFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestPathCovers tests declared-path containment.
func TestPathCovers(t *testing.T) {
	assert.True(t, pathCovers("/opt/ml/model", "/opt/ml/model"))
	assert.True(t, pathCovers("/opt/ml/model", "/opt/ml/model/model.tar.gz"))
	assert.False(t, pathCovers("/opt/ml/model", "/opt/ml/modelx"))
	assert.False(t, pathCovers("/opt/ml/model/a", "/opt/ml/model"))
}
