package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screen/internal/brain"
	"github.com/wonny/aegis-screen/internal/s0_data"
	"github.com/wonny/aegis-screen/internal/selection"
)

// magicSheetsCmd represents the magic-sheets command
var magicSheetsCmd = &cobra.Command{
	Use:   "magic-sheets <file.xlsx>",
	Short: "PER/ROA 시트 워크북으로 마법공식 순위 산출",
	Long: `PER 시트와 ROA 시트를 가진 워크북 하나로 마법공식 순위를 계산합니다.

- PER <= 0 (적자) 종목 제외
- ROA 없는 종목 제외
- 두 시트 모두에 있는 종목만 (inner join)
- PER 오름차순 순위 + ROA 내림차순 순위 합으로 최종 순위

Example:
  go run ./cmd/quant magic-sheets data/magic_2016.xlsx
  go run ./cmd/quant magic-sheets data/magic_2016.xlsx --top 20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runMagicSheets,
}

var magicSheetsTop int

func init() {
	rootCmd.AddCommand(magicSheetsCmd)

	magicSheetsCmd.Flags().IntVar(&magicSheetsTop, "top", selection.All, "상위 N개 (-1 = 전체)")
}

func runMagicSheets(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// 인자로 받은 경로는 DATA_DIR이 아닌 현재 디렉터리 기준
	orch := brain.NewOrchestrator(s0_data.NewLoader(log), nil, nil, brain.Settings{
		DefaultTopN: cfg.Screening.DefaultTopN,
	}, log)

	ranking, err := orch.MagicBySheets(args[0], magicSheetsTop)
	if err != nil {
		return fmt.Errorf("magic formula on %s: %w", args[0], err)
	}

	if jsonOutput {
		return PrintJSON(out, ranking)
	}

	PrintHeader(out, "Magic Formula (sheets)", [][2]string{
		{"File", args[0]},
		{"Rows", fmt.Sprintf("%d", ranking.Len())},
	})
	PrintRanking(out, ranking)
	return nil
}
