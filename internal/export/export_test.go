package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

const (
	mintA = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"
	mintB = "EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm"
)

var day = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)

func newExporter(t *testing.T) *TradeExporter {
	te := NewTradeExporter(zaptest.NewLogger(t))
	te.now = func() time.Time { return day.Add(36 * time.Hour) }
	return te
}

func testTrades() []*models.Trade {
	trade := func(id, mint, direction string, at time.Duration, sol, fee uint64) *models.Trade {
		return &models.Trade{
			TradeID:     id,
			Mint:        mint,
			User:        "trader-" + id,
			Direction:   direction,
			SolAmount:   sol,
			TokenAmount: 34_612_903_225_806,
			Fee:         fee,
			ExecutedAt:  day.Add(at),
		}
	}
	// намеренно не по порядку
	return []*models.Trade{
		trade("3", mintA, "sell", 10*time.Hour, 500_000_000, 5_000_000),
		trade("1", mintA, "buy", 9*time.Hour, 1_000_000_000, 10_000_000),
		trade("2", mintB, "buy", 9*time.Hour+30*time.Minute, 2_000_000_000, 20_000_000),
		trade("4", mintB, "buy", 26*time.Hour, 1_000_000_000, 10_000_000),
	}
}

func TestExportTrades_CSV(t *testing.T) {
	dir := t.TempDir()
	path, err := newExporter(t).ExportTrades(testTrades(), ExportOptions{Format: FormatCSV, OutputDir: dir})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trades_all_20240315_120000.csv"), path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, CSVHeaders(), rows[0])

	first := rows[1]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "buy", first[4])
	assert.Equal(t, "1", first[5])
	assert.Equal(t, "34612903.225807", first[6])
	assert.Equal(t, "0.01", first[7])
	assert.Equal(t, "4", rows[4][0])
}

func TestExportTrades_JSON(t *testing.T) {
	path, err := newExporter(t).ExportTrades(testTrades(), ExportOptions{
		Format:    FormatJSON,
		OutputDir: t.TempDir(),
		StartTime: day,
		EndTime:   day.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var out struct {
		TradeCount int           `json:"trade_count"`
		Trades     []TradeRecord `json:"trades"`
		Summary    ExportSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(content, &out))
	assert.Equal(t, 3, out.TradeCount)
	require.Len(t, out.Trades, 3)
	assert.Equal(t, "1", out.Trades[0].TradeID)
	assert.True(t, out.Trades[1].Sol.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, 2, out.Summary.UniqueTokens)
}

func TestExportTrades_Filters(t *testing.T) {
	tests := []struct {
		name    string
		options ExportOptions
		want    []string
	}{
		{"by mint", ExportOptions{MintFilter: mintB}, []string{"2", "4"}},
		{"by direction", ExportOptions{DirectionFilter: "sell"}, []string{"3"}},
		{"by window", ExportOptions{StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)}, []string{"1", "2"}},
		{"combined", ExportOptions{MintFilter: mintA, DirectionFilter: "buy"}, []string{"1"}},
	}

	te := newExporter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, trade := range te.filterTrades(testTrades(), tt.options) {
				got = append(got, trade.TradeID)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestExportTrades_Errors(t *testing.T) {
	te := newExporter(t)

	_, err := te.ExportTrades(testTrades(), ExportOptions{Format: FormatCSV, MintFilter: "unknown", OutputDir: t.TempDir()})
	assert.Error(t, err)

	_, err = te.ExportTrades(testTrades(), ExportOptions{Format: "xml", OutputDir: t.TempDir()})
	assert.Error(t, err)
}

func TestExportTrades_FilenameCarriesFilters(t *testing.T) {
	te := newExporter(t)
	name := te.generateFilename(ExportOptions{Format: FormatJSON, DirectionFilter: "buy", MintFilter: mintA})
	assert.Equal(t, "trades_buy_7GCihgDB_20240315_120000.json", name)
}

func TestSummarize(t *testing.T) {
	trades := testTrades()
	sort.SliceStable(trades, func(i, j int) bool { return trades[i].ExecutedAt.Before(trades[j].ExecutedAt) })
	summary := Summarize(trades)

	assert.Equal(t, 4, summary.TotalTrades)
	assert.Equal(t, 3, summary.BuyCount)
	assert.Equal(t, 1, summary.SellCount)
	assert.Equal(t, 4, summary.UniqueTraders)
	assert.True(t, summary.BuyVolumeSol.Equal(decimal.NewFromInt(4)), summary.BuyVolumeSol.String())
	assert.True(t, summary.SellVolumeSol.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, summary.TotalVolumeSol.Equal(decimal.RequireFromString("4.5")))
	assert.True(t, summary.NetInflowSol.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, summary.FeesSol.Equal(decimal.RequireFromString("0.045")))
	assert.True(t, summary.StartDate.Equal(day.Add(9*time.Hour)))
	assert.True(t, summary.EndDate.Equal(day.Add(26*time.Hour)))

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalTrades)
	assert.True(t, empty.TotalVolumeSol.IsZero())
}

func TestExportDailyReport(t *testing.T) {
	dir := t.TempDir()
	te := newExporter(t)

	path, err := te.ExportDailyReport(testTrades(), day.Add(15*time.Hour), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily_report_20240314.json"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var report DailyReport
	require.NoError(t, json.Unmarshal(content, &report))
	assert.Equal(t, 3, report.TradeCount)
	require.Len(t, report.HourlyBreakdown, 2)
	assert.Equal(t, 9, report.HourlyBreakdown[0].Hour)
	assert.Equal(t, 2, report.HourlyBreakdown[0].BuyCount)
	assert.True(t, report.HourlyBreakdown[0].VolumeSol.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 1, report.HourlyBreakdown[1].SellCount)

	path, err = te.ExportDailyReport(testTrades(), day.Add(72*time.Hour), dir)
	require.NoError(t, err)
	assert.Empty(t, path)
}
