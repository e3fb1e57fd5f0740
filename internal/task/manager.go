package task

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manager loads and parses scenario definitions.
type Manager struct {
	logger *zap.Logger
}

// Scenario is a set of wallets and the tasks they run.
type Scenario struct {
	Wallets map[string]*Wallet
	Tasks   []*Task
}

// Launches returns the launch tasks in file order.
func (s *Scenario) Launches() []*Task {
	var out []*Task
	for _, t := range s.Tasks {
		if !t.IsTrade() {
			out = append(out, t)
		}
	}
	return out
}

// Trades returns the trading tasks in file order.
func (s *Scenario) Trades() []*Task {
	var out []*Task
	for _, t := range s.Tasks {
		if t.IsTrade() {
			out = append(out, t)
		}
	}
	return out
}

// ScenarioConfig represents the structure of the scenario YAML file
type ScenarioConfig struct {
	Wallets []struct {
		Name       string  `yaml:"name"`
		PrivateKey string  `yaml:"private_key"`
		FundSol    float64 `yaml:"fund_sol"`
	} `yaml:"wallets"`
	Tasks []struct {
		TaskName      string  `yaml:"task_name"`
		Wallet        string  `yaml:"wallet"`
		Operation     string  `yaml:"operation"`
		Symbol        string  `yaml:"symbol"`
		AmountSol     float64 `yaml:"amount_sol"`
		PercentToSell float64 `yaml:"percent_to_sell"`
		SlippageBps   uint64  `yaml:"slippage_bps"`
	} `yaml:"tasks"`
}

// NewManager constructs a Manager with the given logger.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// LoadScenario reads wallets and tasks from a YAML file
func (m *Manager) LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return m.ParseScenario(data)
}

// ParseScenario parses a YAML scenario. Invalid tasks are skipped with a
// warning; a scenario without valid tasks is an error.
func (m *Manager) ParseScenario(data []byte) (*Scenario, error) {
	var config ScenarioConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(config.Tasks) == 0 {
		return nil, fmt.Errorf("no tasks found in configuration")
	}

	scenario := &Scenario{Wallets: make(map[string]*Wallet)}
	for _, walletData := range config.Wallets {
		if walletData.Name == "" {
			continue
		}
		w, err := NewWallet(walletData.Name, walletData.PrivateKey, walletData.FundSol)
		if err != nil {
			m.logger.Warn("Skipping invalid wallet", zap.String("wallet", walletData.Name), zap.Error(err))
			continue
		}
		scenario.Wallets[w.Name] = w
	}

	for i, taskData := range config.Tasks {
		t := &Task{
			ID:            i,
			TaskName:      taskData.TaskName,
			WalletName:    taskData.Wallet,
			Operation:     OperationType(taskData.Operation),
			Symbol:        taskData.Symbol,
			AmountSol:     taskData.AmountSol,
			PercentToSell: taskData.PercentToSell,
			SlippageBps:   taskData.SlippageBps,
			CreatedAt:     time.Now(),
		}
		if err := t.Validate(); err != nil {
			m.logger.Warn("Skipping invalid task", zap.String("task_name", t.TaskName), zap.Error(err))
			continue
		}
		if t.IsTrade() && scenario.Wallets[t.WalletName] == nil {
			m.logger.Warn("Skipping task with unknown wallet",
				zap.String("task_name", t.TaskName),
				zap.String("wallet", t.WalletName))
			continue
		}
		scenario.Tasks = append(scenario.Tasks, t)
	}

	if len(scenario.Tasks) == 0 {
		return nil, fmt.Errorf("no valid tasks loaded")
	}

	m.logger.Info("Loaded tasks", zap.Int("count", len(scenario.Tasks)), zap.Int("wallets", len(scenario.Wallets)))
	return scenario, nil
}
