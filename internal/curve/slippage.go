// internal/curve/slippage.go
package curve

import (
	"github.com/holiman/uint256"
)

// SlippageType определяет тип политики проскальзывания
type SlippageType string

const (
	// SlippageFixed использует фиксированное значение границы
	SlippageFixed SlippageType = "fixed"
	// SlippageBps использует допуск в базисных пунктах от ожидаемого значения
	SlippageBps SlippageType = "bps"
	// SlippageNone не ограничивает результат
	SlippageNone SlippageType = "none"
)

// SlippageConfig конфигурирует политику проскальзывания
type SlippageConfig struct {
	Type SlippageType `mapstructure:"type" json:"type"`
	// Value: граница для SlippageFixed, допуск для SlippageBps (100 = 1%)
	Value uint64 `mapstructure:"value" json:"value"`
}

// MinAmountOut вычисляет нижнюю границу результата по ожидаемому значению.
func (c SlippageConfig) MinAmountOut(expected uint64) uint64 {
	switch c.Type {
	case SlippageFixed:
		return c.Value
	case SlippageBps:
		if c.Value >= MaxFeeBasisPoints {
			return 0
		}
		return mulDivFloor(expected, MaxFeeBasisPoints-c.Value, MaxFeeBasisPoints)
	default:
		return 0
	}
}

// MaxAmountIn вычисляет верхнюю границу затрат по ожидаемому значению.
func (c SlippageConfig) MaxAmountIn(expected uint64) uint64 {
	switch c.Type {
	case SlippageFixed:
		return c.Value
	case SlippageBps:
		return mulDivFloor(expected, MaxFeeBasisPoints+c.Value, MaxFeeBasisPoints)
	default:
		return ^uint64(0)
	}
}

// mulDivFloor returns floor(x*y/d), saturating at the uint64 maximum.
func mulDivFloor(x, y, d uint64) uint64 {
	z := new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(y))
	z.Div(z, uint256.NewInt(d))
	if !z.IsUint64() {
		return ^uint64(0)
	}
	return z.Uint64()
}
