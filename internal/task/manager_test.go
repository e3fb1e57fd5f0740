package task

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const scenarioYAML = `
wallets:
  - name: alice
    fund_sol: 5
  - name: bob
    fund_sol: 120.5
tasks:
  - task_name: launch-pepe
    operation: launch
    symbol: PEPE
  - task_name: alice-buys
    wallet: alice
    operation: buy
    symbol: PEPE
    amount_sol: 1.5
    slippage_bps: 100
  - task_name: alice-sells-half
    wallet: alice
    operation: sell
    symbol: PEPE
    percent_to_sell: 50
  - task_name: bob-buys-out
    wallet: bob
    operation: buy_out
    symbol: PEPE
  - task_name: broken
    wallet: alice
    operation: snipe
    symbol: PEPE
  - task_name: ghost
    wallet: carol
    operation: buy
    symbol: PEPE
    amount_sol: 1
`

func TestManager_LoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0600))

	scenario, err := NewManager(zaptest.NewLogger(t)).LoadScenario(path)
	require.NoError(t, err)

	require.Len(t, scenario.Wallets, 2)
	assert.Equal(t, uint64(120_500_000_000), scenario.Wallets["bob"].Funding())
	assert.False(t, scenario.Wallets["alice"].PublicKey.IsZero())

	require.Len(t, scenario.Tasks, 4)
	require.Len(t, scenario.Launches(), 1)
	assert.Equal(t, "PEPE", scenario.Launches()[0].Symbol)

	trades := scenario.Trades()
	require.Len(t, trades, 3)
	assert.Equal(t, uint64(1_500_000_000), trades[0].Lamports())
	assert.Equal(t, uint64(9_900), trades[0].Slippage().MinAmountOut(10_000))
	assert.Equal(t, uint64(500), trades[1].Share(1_001))
	assert.Equal(t, OperationBuyOut, trades[2].Operation)
}

func TestManager_ParseScenario_NoValidTasks(t *testing.T) {
	_, err := NewManager(zaptest.NewLogger(t)).ParseScenario([]byte("tasks:\n  - task_name: x\n    operation: buy\n"))
	assert.Error(t, err)

	_, err = NewManager(zaptest.NewLogger(t)).ParseScenario([]byte("wallets: []\n"))
	assert.Error(t, err)
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{"launch needs no wallet", Task{TaskName: "l", Operation: OperationLaunch, Symbol: "X"}, false},
		{"buy", Task{TaskName: "b", WalletName: "w", Operation: OperationBuy, Symbol: "X", AmountSol: 0.1}, false},
		{"buy without amount", Task{TaskName: "b", WalletName: "w", Operation: OperationBuy, Symbol: "X"}, true},
		{"sell over 100 percent", Task{TaskName: "s", WalletName: "w", Operation: OperationSell, Symbol: "X", PercentToSell: 120}, true},
		{"trade without wallet", Task{TaskName: "o", Operation: OperationBuyOut, Symbol: "X"}, true},
		{"slippage too wide", Task{TaskName: "o", WalletName: "w", Operation: OperationBuyOut, Symbol: "X", SlippageBps: 10_001}, true},
		{"missing symbol", Task{TaskName: "o", WalletName: "w", Operation: OperationBuyOut}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
