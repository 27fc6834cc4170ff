package bench

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
truth: labels/truth.csv
predictions: labels/pred.csv.gz
iou_threshold: 0.6
p_norm: 2
workers: 4
guard:
  ratio: 5
`))
	require.NoError(t, err)

	assert.Equal(t, "labels/truth.csv", cfg.Truth)
	assert.Equal(t, "labels/pred.csv.gz", cfg.Predictions)
	assert.Equal(t, 0.6, cfg.IoUThreshold)
	assert.Equal(t, 2.0, cfg.PNorm)
	assert.Equal(t, 1.0, cfg.Cutoff, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, Guard{Ratio: 5, MinSize: 15}, cfg.Guard)
	assert.Len(t, cfg.Options(), 5)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "threshold above one", input: "iou_threshold: 1.5"},
		{name: "p norm below one", input: "p_norm: 0.5"},
		{name: "zero cutoff", input: "cutoff: 0"},
		{name: "negative workers", input: "workers: -1"},
		{name: "negative weight", input: "recall_weight: -1"},
		{name: "nan threshold", input: "iou_threshold: .nan"},
		{name: "nan p norm", input: "p_norm: .nan"},
		{name: "infinite cutoff", input: "cutoff: .inf"},
		{name: "nan weight", input: "precision_weight: .nan"},
		{name: "malformed", input: "iou_threshold: [1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cutoff: 0.5\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Cutoff)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvIoUThreshold, "0.3")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvTruth, "t.csv")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 0.3, cfg.IoUThreshold)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "t.csv", cfg.Truth)

	t.Setenv(EnvPNorm, "abc")
	cfg = DefaultConfig()
	assert.Error(t, cfg.ApplyEnv())
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(EnvCutoff+"=0.25\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv(EnvCutoff) })

	require.NoError(t, LoadDotEnv(path, true))
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, 0.25, cfg.Cutoff)

	missing := filepath.Join(t.TempDir(), ".env")
	assert.NoError(t, LoadDotEnv(missing, false))
	assert.Error(t, LoadDotEnv(missing, true))
}

func TestApplyEnv_NaNThreshold(t *testing.T) {
	t.Setenv(EnvIoUThreshold, "NaN")

	cfg := DefaultConfig()
	err := cfg.ApplyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iou_threshold")
}
