package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/curve-launchpad/internal/curve"
	"github.com/rovshanmuradov/curve-launchpad/internal/storage/models"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// ExportOptions configures the export behavior
type ExportOptions struct {
	Format          ExportFormat
	StartTime       time.Time
	EndTime         time.Time
	MintFilter      string // Filter by token mint
	DirectionFilter string // Filter by direction (buy/sell)
	OutputDir       string
}

// TradeExporter handles trade export functionality
type TradeExporter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewTradeExporter creates a new trade exporter
func NewTradeExporter(logger *zap.Logger) *TradeExporter {
	return &TradeExporter{
		logger: logger.Named("export"),
		now:    time.Now,
	}
}

// ExportTrades exports trades based on the provided options
func (te *TradeExporter) ExportTrades(trades []*models.Trade, options ExportOptions) (string, error) {
	filtered := te.filterTrades(trades, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ExecutedAt.Before(filtered[j].ExecutedAt)
	})

	outputPath := filepath.Join(options.OutputDir, te.generateFilename(options))
	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = te.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = te.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}
	if err != nil {
		return "", err
	}

	te.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (te *TradeExporter) filterTrades(trades []*models.Trade, options ExportOptions) []*models.Trade {
	var filtered []*models.Trade
	for _, trade := range trades {
		if !options.StartTime.IsZero() && trade.ExecutedAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && !trade.ExecutedAt.Before(options.EndTime) {
			continue
		}
		if options.MintFilter != "" && trade.Mint != options.MintFilter {
			continue
		}
		if options.DirectionFilter != "" && trade.Direction != options.DirectionFilter {
			continue
		}
		filtered = append(filtered, trade)
	}
	return filtered
}

func (te *TradeExporter) generateFilename(options ExportOptions) string {
	prefix := "trades_all"
	if options.DirectionFilter != "" {
		prefix = "trades_" + options.DirectionFilter
	}
	if len(options.MintFilter) >= 8 {
		prefix += "_" + options.MintFilter[:8]
	}
	return fmt.Sprintf("%s_%s.%s", prefix, te.now().Format("20060102_150405"), options.Format)
}

// CSVHeaders returns the column names of a trade row.
func CSVHeaders() []string {
	return []string{
		"trade_id", "executed_at", "mint", "user", "direction",
		"sol", "tokens", "fee_sol",
		"virtual_sol_reserves", "virtual_token_reserves",
		"real_sol_reserves", "real_token_reserves", "curve_version",
	}
}

// CSVRow renders one trade; amounts are in whole SOL and tokens.
func CSVRow(t *models.Trade) []string {
	return []string{
		t.TradeID,
		t.ExecutedAt.UTC().Format(time.RFC3339Nano),
		t.Mint,
		t.User,
		t.Direction,
		curve.LamportsToSol(t.SolAmount).String(),
		curve.TokenUnitsToTokens(t.TokenAmount).String(),
		curve.LamportsToSol(t.Fee).String(),
		strconv.FormatUint(t.VirtualSolReserves, 10),
		strconv.FormatUint(t.VirtualTokenReserves, 10),
		strconv.FormatUint(t.RealSolReserves, 10),
		strconv.FormatUint(t.RealTokenReserves, 10),
		strconv.FormatUint(t.CurveVersion, 10),
	}
}

func (te *TradeExporter) exportToCSV(trades []*models.Trade, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, trade := range trades {
		if err := writer.Write(CSVRow(trade)); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// TradeRecord is the JSON view of a trade.
type TradeRecord struct {
	TradeID      string          `json:"trade_id"`
	ExecutedAt   time.Time       `json:"executed_at"`
	Mint         string          `json:"mint"`
	User         string          `json:"user"`
	Direction    string          `json:"direction"`
	Sol          decimal.Decimal `json:"sol"`
	Tokens       decimal.Decimal `json:"tokens"`
	FeeSol       decimal.Decimal `json:"fee_sol"`
	CurveVersion uint64          `json:"curve_version"`
}

func toRecord(t *models.Trade) TradeRecord {
	return TradeRecord{
		TradeID:      t.TradeID,
		ExecutedAt:   t.ExecutedAt.UTC(),
		Mint:         t.Mint,
		User:         t.User,
		Direction:    t.Direction,
		Sol:          curve.LamportsToSol(t.SolAmount),
		Tokens:       curve.TokenUnitsToTokens(t.TokenAmount),
		FeeSol:       curve.LamportsToSol(t.Fee),
		CurveVersion: t.CurveVersion,
	}
}

func toRecords(trades []*models.Trade) []TradeRecord {
	records := make([]TradeRecord, 0, len(trades))
	for _, t := range trades {
		records = append(records, toRecord(t))
	}
	return records
}

func writeJSON(outputPath string, v interface{}) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (te *TradeExporter) exportToJSON(trades []*models.Trade, outputPath string) error {
	return writeJSON(outputPath, struct {
		ExportTime time.Time     `json:"export_time"`
		TradeCount int           `json:"trade_count"`
		Trades     []TradeRecord `json:"trades"`
		Summary    ExportSummary `json:"summary"`
	}{
		ExportTime: te.now().UTC(),
		TradeCount: len(trades),
		Trades:     toRecords(trades),
		Summary:    Summarize(trades),
	})
}

// ExportSummary contains summary statistics for exported trades
type ExportSummary struct {
	TotalTrades    int             `json:"total_trades"`
	BuyCount       int             `json:"buy_count"`
	SellCount      int             `json:"sell_count"`
	UniqueTokens   int             `json:"unique_tokens"`
	UniqueTraders  int             `json:"unique_traders"`
	BuyVolumeSol   decimal.Decimal `json:"buy_volume_sol"`
	SellVolumeSol  decimal.Decimal `json:"sell_volume_sol"`
	TotalVolumeSol decimal.Decimal `json:"total_volume_sol"`
	FeesSol        decimal.Decimal `json:"fees_sol"`
	// NetInflowSol: покупки минус продажи, без комиссий
	NetInflowSol decimal.Decimal `json:"net_inflow_sol"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
}

// Summarize aggregates trades ordered by execution time.
func Summarize(trades []*models.Trade) ExportSummary {
	summary := ExportSummary{
		TotalTrades:    len(trades),
		BuyVolumeSol:   decimal.Zero,
		SellVolumeSol:  decimal.Zero,
		TotalVolumeSol: decimal.Zero,
		FeesSol:        decimal.Zero,
		NetInflowSol:   decimal.Zero,
	}
	if len(trades) == 0 {
		return summary
	}

	summary.StartDate = trades[0].ExecutedAt.UTC()
	summary.EndDate = trades[len(trades)-1].ExecutedAt.UTC()

	tokens := make(map[string]struct{})
	traders := make(map[string]struct{})
	for _, trade := range trades {
		tokens[trade.Mint] = struct{}{}
		traders[trade.User] = struct{}{}

		sol := curve.LamportsToSol(trade.SolAmount)
		summary.FeesSol = summary.FeesSol.Add(curve.LamportsToSol(trade.Fee))
		switch trade.Direction {
		case "buy":
			summary.BuyCount++
			summary.BuyVolumeSol = summary.BuyVolumeSol.Add(sol)
		case "sell":
			summary.SellCount++
			summary.SellVolumeSol = summary.SellVolumeSol.Add(sol)
		}
	}

	summary.UniqueTokens = len(tokens)
	summary.UniqueTraders = len(traders)
	summary.TotalVolumeSol = summary.BuyVolumeSol.Add(summary.SellVolumeSol)
	summary.NetInflowSol = summary.BuyVolumeSol.Sub(summary.SellVolumeSol)
	return summary
}

// ExportDailyReport exports a daily summary report. An empty day writes
// nothing and returns an empty path.
func (te *TradeExporter) ExportDailyReport(trades []*models.Trade, date time.Time, outputDir string) (string, error) {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	filtered := te.filterTrades(trades, ExportOptions{
		StartTime: startOfDay,
		EndTime:   startOfDay.Add(24 * time.Hour),
	})
	if len(filtered) == 0 {
		te.logger.Info("No trades for daily report", zap.Time("date", startOfDay))
		return "", nil
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ExecutedAt.Before(filtered[j].ExecutedAt)
	})

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("daily_report_%s.json", startOfDay.Format("20060102")))

	report := DailyReport{
		Date:            startOfDay,
		TradeCount:      len(filtered),
		Summary:         Summarize(filtered),
		HourlyBreakdown: hourlyBreakdown(filtered),
		Trades:          toRecords(filtered),
	}
	if err := writeJSON(outputPath, report); err != nil {
		return "", err
	}

	te.logger.Info("Daily report exported",
		zap.String("file", outputPath),
		zap.Time("date", startOfDay),
		zap.Int("trades", len(filtered)))

	return outputPath, nil
}

// DailyReport represents a daily trading report
type DailyReport struct {
	Date            time.Time     `json:"date"`
	TradeCount      int           `json:"trade_count"`
	Summary         ExportSummary `json:"summary"`
	HourlyBreakdown []HourlyStats `json:"hourly_breakdown"`
	Trades          []TradeRecord `json:"trades"`
}

// HourlyStats represents trading statistics for an hour
type HourlyStats struct {
	Hour      int             `json:"hour"`
	Trades    int             `json:"trades"`
	BuyCount  int             `json:"buy_count"`
	SellCount int             `json:"sell_count"`
	VolumeSol decimal.Decimal `json:"volume_sol"`
	FeesSol   decimal.Decimal `json:"fees_sol"`
}

func hourlyBreakdown(trades []*models.Trade) []HourlyStats {
	var hours [24]*HourlyStats
	for _, trade := range trades {
		hour := trade.ExecutedAt.Hour()
		stats := hours[hour]
		if stats == nil {
			stats = &HourlyStats{Hour: hour, VolumeSol: decimal.Zero, FeesSol: decimal.Zero}
			hours[hour] = stats
		}

		stats.Trades++
		stats.VolumeSol = stats.VolumeSol.Add(curve.LamportsToSol(trade.SolAmount))
		stats.FeesSol = stats.FeesSol.Add(curve.LamportsToSol(trade.Fee))
		switch trade.Direction {
		case "buy":
			stats.BuyCount++
		case "sell":
			stats.SellCount++
		}
	}

	var breakdown []HourlyStats
	for _, stats := range hours {
		if stats != nil {
			breakdown = append(breakdown, *stats)
		}
	}
	return breakdown
}
