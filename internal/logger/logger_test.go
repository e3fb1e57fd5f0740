package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name   string
		msg    string
		fields []zap.Field
		want   []string
	}{
		{
			name:   "curve created",
			msg:    "Bonding curve created",
			fields: []zap.Field{zap.String("symbol", "TEST"), zap.String("mint", "So11111111111111111111111111111111111111112")},
			want:   []string{"Curve launched: TEST", "So11...1112"},
		},
		{
			name:   "trade",
			msg:    "Trade executed",
			fields: []zap.Field{zap.String("direction", "buy"), zap.Uint64("tokens", 34_612_903_225_806), zap.Uint64("settlement", 1_000_000_000)},
			want:   []string{"buy 34612903225807 tokens for 1000000000 lamports"},
		},
		{
			name:   "rejection",
			msg:    "Trade rejected",
			fields: []zap.Field{zap.String("state", "pricing"), zap.String("reason", "insufficient_liquidity")},
			want:   []string{"rejected while pricing: insufficient_liquidity"},
		},
		{
			name: "unknown message",
			msg:  "Event bus shutdown complete",
			want: []string{"Event bus shutdown complete"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMessage(tt.msg, tt.fields...)
			for _, part := range tt.want {
				assert.Contains(t, got, part)
			}
		})
	}
}

func TestPrettyCore_DropsFields(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(NewPrettyCore(zapcore.AddSync(&buf), zapcore.InfoLevel))

	log.With(zap.String("mint", "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")).
		Info("Bonding curve complete", zap.Uint64("real_sol_reserves", 85_005_359_057))
	log.Debug("Trade executed")

	out := buf.String()
	assert.Contains(t, out, "Curve 9xQe...VFin sold out")
	assert.NotContains(t, out, "real_sol_reserves")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchpad.log")
	cfg := DefaultConfig()
	cfg.LogFile = path

	log, err := New(cfg)
	require.NoError(t, err)

	log.WithComponent("test").Info("Trade executed", zap.String("direction", "sell"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"direction":"sell"`)
}
