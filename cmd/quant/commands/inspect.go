package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/internal/s0_data"
	"github.com/wonny/aegis-screen/internal/s0_data/quality"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "입력 파일 구조와 지표 커버리지 확인",
	Long: `재무/가격 파일을 읽어 헤더 구조와 지표별 커버리지를 확인합니다.

확인 항목:
- 기간(period) 목록과 기간별 지표
- 종목 수
- 지표별 커버리지 (값이 있는 종목 비율)
- 품질 점수 및 임계값 통과 여부

Example:
  go run ./cmd/quant inspect data/fnguide/invest.xlsx
  go run ./cmd/quant inspect data/fnguide/invest.xlsx --sheet 투자지표 --period 2016/12
  go run ./cmd/quant inspect data/fnguide/prices.csv --prices --date 2020-01-03`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectSheet  string
	inspectPeriod string
	inspectPrices bool
	inspectDate   string
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "시트 이름 (기본: 첫 시트)")
	inspectCmd.Flags().StringVar(&inspectPeriod, "period", "", "커버리지를 볼 기간 (기본: 최신)")
	inspectCmd.Flags().BoolVar(&inspectPrices, "prices", false, "가격 파일로 읽기 (date + 종목코드 헤더)")
	inspectCmd.Flags().StringVar(&inspectDate, "date", "", "가격 커버리지 기준일 YYYY-MM-DD (기본: 최신)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	_, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}

	loader := s0_data.NewLoader(log)
	gate := quality.NewGate(quality.DefaultConfig())

	if inspectPrices {
		return inspectPriceFile(cmd, loader, gate, args[0])
	}
	return inspectFundamentalsFile(cmd, loader, gate, args[0])
}

func inspectFundamentalsFile(cmd *cobra.Command, loader *s0_data.Loader, gate *quality.Gate, path string) error {
	out := cmd.OutOrStdout()

	table, err := loader.LoadFundamentals(path, inspectSheet)
	if err != nil {
		return err
	}

	period := inspectPeriod
	if period == "" {
		period = table.LatestPeriod()
	}
	snap, err := gate.Check(path, table, period, nil)
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(out, map[string]interface{}{
			"periods": table.Periods(),
			"columns": table.Columns,
			"rows":    table.Len(),
			"quality": snap,
		})
	}

	PrintHeader(out, "Inspect: "+path, [][2]string{
		{"Rows", fmt.Sprintf("%d", table.Len())},
		{"Periods", fmt.Sprintf("%d", len(table.Periods()))},
		{"Columns", fmt.Sprintf("%d", len(table.Columns))},
	})
	for _, p := range table.Periods() {
		PrintKeyValue(out, p, strings.Join(table.Metrics(p), ", "), 10)
	}
	fmt.Fprintln(out)
	PrintQuality(out, snap)
	return nil
}

func inspectPriceFile(cmd *cobra.Command, loader *s0_data.Loader, gate *quality.Gate, path string) error {
	out := cmd.OutOrStdout()

	prices, err := loader.LoadPrices(path, inspectSheet)
	if err != nil {
		return err
	}
	if prices.Len() == 0 {
		return fmt.Errorf("%s: no price rows", path)
	}

	date := prices.LatestDate()
	if inspectDate != "" {
		if date, err = time.Parse(contracts.DateLayout, inspectDate); err != nil {
			return fmt.Errorf("--date: %w", err)
		}
	}
	snap, err := gate.CheckPrices(path, prices, date)
	if err != nil {
		return err
	}

	if jsonOutput {
		return PrintJSON(out, map[string]interface{}{
			"codes":   prices.Codes,
			"from":    prices.Dates[0].Format(contracts.DateLayout),
			"to":      prices.LatestDate().Format(contracts.DateLayout),
			"dates":   prices.Len(),
			"quality": snap,
		})
	}

	PrintHeader(out, "Inspect: "+path, [][2]string{
		{"Codes", fmt.Sprintf("%d", len(prices.Codes))},
		{"Dates", fmt.Sprintf("%d", prices.Len())},
		{"Range", prices.Dates[0].Format(contracts.DateLayout) + " ~ " + prices.LatestDate().Format(contracts.DateLayout)},
	})
	PrintQuality(out, snap)
	return nil
}
