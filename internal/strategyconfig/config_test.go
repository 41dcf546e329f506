package strategyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PassesValidation(t *testing.T) {
	cfg := Default()
	assert.NoError(t, Validate(cfg))
	assert.Empty(t, Warn(cfg))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fast >= slow", func(c *Config) { c.Producers.Trend.FastWindow = 30 }},
		{"corr min obs < 20", func(c *Config) { c.Producers.CorrRegime.MinObservations = 10 }},
		{"weights sum != 1", func(c *Config) { c.Merge.PriceWeight = 0.7 }},
		{"unknown policy", func(c *Config) { c.Merge.Policy = "coin_flip" }},
		{"min > max position", func(c *Config) { c.Sizing.MinPositionPct = 0.5 }},
		{"negative commission", func(c *Config) { c.Costs.CommissionPct = -0.001 }},
		{"zero stop loss", func(c *Config) { c.Exit.StopLossPct = 0 }},
		{"overfit not increasing", func(c *Config) { c.Validation.Overfit.Moderate = 0.05 }},
		{"bad split method", func(c *Config) { c.Validation.Split.Method = "coinflip" }},
		{"zero walk-forward step", func(c *Config) { c.Validation.WalkForward.StepPeriods = 0 }},
		{"zero adapt lookback", func(c *Config) { c.Merge.AdaptLookbackPeriods = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verr ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Producers.CorrRegime.Window = 10
	cfg.Costs.SlippagePct = 0.0001

	warnings := Warn(cfg)
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, w.Code)
	}
	assert.Contains(t, codes, "SHORT_CORR_WINDOW")
	assert.Contains(t, codes, "OPTIMISTIC_SLIPPAGE")
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	yaml := `
meta:
  strategy_id: test
  version: "1"
turbo_mode: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	_, _, err := Load(path)
	assert.Error(t, err) // KnownFields가 오타를 잡는다
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(Default())
	require.NoError(t, err)
	b, err := Hash(Default())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	changed := Default()
	changed.Merge.PriceWeight = 0.5
	changed.Merge.AltWeight = 0.5
	c, err := Hash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestNewDecisionSnapshot(t *testing.T) {
	cfg := Default()
	raw := []byte("meta:\n  strategy_id: edgelab_v1\n")

	snap, err := NewDecisionSnapshot(cfg, raw)
	require.NoError(t, err)

	wantHash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Equal(t, wantHash, snap.ConfigHash)
	assert.Equal(t, string(raw), snap.ConfigYAML) // 원본 YAML 그대로 보존
	assert.Equal(t, cfg.Meta.StrategyID, snap.StrategyID)
	assert.False(t, snap.CreatedAt.IsZero())
}
