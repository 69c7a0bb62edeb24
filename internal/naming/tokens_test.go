package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"TabularPreprocessing", []string{"tabular", "preprocessing"}},
		{"tabular_preprocessing", []string{"tabular", "preprocessing"}},
		{"XGBoostTraining", []string{"xgboost", "training"}},
		{"ModelEvalXGB", []string{"model", "eval", "xgb"}},
		{"XGBModelEval", []string{"xgb", "model", "eval"}},
		{"PyTorchModel", []string{"pytorch", "model"}},
		{"RiskTableMapping_Training", []string{"risk", "table", "mapping", "training"}},
		{"stage2Output", []string{"stage2", "output"}},
		{"  spaced--out  ", []string{"spaced", "out"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.in))
		})
	}
}

func TestCompact(t *testing.T) {
	assert.Equal(t, "tabularpreprocessing", Compact("Tabular_Preprocessing"))
	assert.Equal(t, "tabularpreprocessing", Compact("tabular-preprocessing"))
	assert.Equal(t, Compact("XGBoostTraining"), Compact("xgboost_training"))
}

func TestFromFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"scripts/tabular_preprocessing.py", "tabular_preprocessing"},
		{"builder_xgboost_training_step.py", "xgboost_training"},
		{"contracts/model_evaluation_xgb_contract.py", "model_evaluation_xgb"},
		{"config_risk_table_mapping_step.py", "risk_table_mapping"},
		{"/abs/path/currency_conversion_spec.cue", "currency_conversion"},
		{"_step.py", "_step"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FromFileName(tt.in))
		})
	}
}
