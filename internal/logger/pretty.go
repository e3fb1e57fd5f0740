// internal/logger/pretty.go
package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

func prettyEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset))
	case zapcore.InfoLevel:
		enc.AppendString(fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset))
	case zapcore.WarnLevel:
		enc.AppendString(fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset))
	case zapcore.ErrorLevel:
		enc.AppendString(fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset))
	case zapcore.FatalLevel:
		enc.AppendString(fmt.Sprintf("%s[FATAL]%s", ColorRed+ColorBold, ColorReset))
	default:
		enc.AppendString(fmt.Sprintf("[%s]", level.CapitalString()))
	}
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// NewPrettyCore пишет в ws короткие сообщения без структурных полей.
// Известные сообщения лаунчпада переписываются через FormatMessage.
func NewPrettyCore(ws zapcore.WriteSyncer, level zapcore.LevelEnabler) zapcore.Core {
	return &FieldFilterCore{core: zapcore.NewCore(zapcore.NewConsoleEncoder(prettyEncoderConfig()), ws, level)}
}

// FormatMessage creates user-friendly log messages
func FormatMessage(msg string, fields ...zap.Field) string {
	switch {
	case strings.Contains(msg, "Bonding curve created"):
		symbol := extractField(fields, "symbol")
		mint := extractField(fields, "mint")
		return fmt.Sprintf("%s🚀 Curve launched: %s (%s)%s", ColorGreen, symbol, shortenAddress(mint), ColorReset)

	case strings.Contains(msg, "Trade executed"):
		direction := extractField(fields, "direction")
		tokens := extractField(fields, "tokens")
		settlement := extractField(fields, "settlement")
		return fmt.Sprintf("%s⚡ %s %s tokens for %s lamports%s", ColorCyan, direction, tokens, settlement, ColorReset)

	case strings.Contains(msg, "Trade rejected"):
		reason := extractField(fields, "reason")
		state := extractField(fields, "state")
		return fmt.Sprintf("%s✗ Trade rejected while %s: %s%s", ColorYellow, state, reason, ColorReset)

	case strings.Contains(msg, "Bonding curve complete"):
		mint := extractField(fields, "mint")
		return fmt.Sprintf("%s🎯 Curve %s sold out, migration requested%s", ColorPurple, shortenAddress(mint), ColorReset)

	case strings.Contains(msg, "Bonding curve migrated"):
		pool := extractField(fields, "pool")
		return fmt.Sprintf("%s🎉 Liquidity migrated to pool %s%s", ColorGreen+ColorBold, shortenAddress(pool), ColorReset)

	case strings.Contains(msg, "Migration failed"):
		return fmt.Sprintf("%s✗ Migration failed%s", ColorRed, ColorReset)

	case strings.Contains(msg, "Venue fees claimed"):
		amount := extractField(fields, "amount")
		return fmt.Sprintf("%s💰 Venue fees claimed: %s lamports%s", ColorGreen, amount, ColorReset)

	default:
		return msg
	}
}

func extractField(fields []zap.Field, key string) string {
	for _, field := range fields {
		if field.Key != key {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.Uint64Type, zapcore.Int64Type, zapcore.Uint32Type, zapcore.Int32Type:
			return fmt.Sprintf("%d", field.Integer)
		default:
			return fmt.Sprintf("%v", field.Interface)
		}
	}
	return ""
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

// FieldFilterCore wraps a zapcore.Core to filter out unwanted fields
type FieldFilterCore struct {
	core   zapcore.Core
	fields []zapcore.Field
}

func (c *FieldFilterCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

// With запоминает поля только для FormatMessage, в вывод они не попадают.
func (c *FieldFilterCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &FieldFilterCore{core: c.core, fields: merged}
}

func (c *FieldFilterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *FieldFilterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := append(append([]zapcore.Field(nil), c.fields...), fields...)
	entry.Message = FormatMessage(entry.Message, all...)
	return c.core.Write(entry, nil)
}

func (c *FieldFilterCore) Sync() error {
	return c.core.Sync()
}
