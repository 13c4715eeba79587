package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-screen/internal/brain"
	"github.com/wonny/aegis-screen/internal/s0_data"
	"github.com/wonny/aegis-screen/internal/strategyconfig"
	"github.com/wonny/aegis-screen/pkg/config"
	"github.com/wonny/aegis-screen/pkg/database"
	"github.com/wonny/aegis-screen/pkg/logger"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "전략 설정(YAML)대로 종목 순위 산출",
	Long: `전략 설정 파일의 전략을 실행해 종목 순위를 출력합니다.

전략 종류:
- factor         단일 지표 순위 (PER/PBR/PSR/PCR 오름차순, ROA 내림차순)
- magic_formula  PER 순위 + ROA 순위 합
- value_combo    여러 밸류 지표 순위 합
- fscore         당기순이익/영업현금흐름 3점 종목
- momentum       N거래일 수익률 순위
- value_quality  밸류 콤보 + F-Score 3점

Flags:
  --strategy   실행할 전략 id (여러 개는 쉼표로 구분)
  --all        설정의 모든 전략 실행
  --list       전략 목록만 출력
  --file       전략 설정 파일 (기본: STRATEGY_CONFIG)
  --top        top_n 덮어쓰기 (-1 = 전체)

Example:
  go run ./cmd/quant screen --strategy magic_formula
  go run ./cmd/quant screen --strategy low_per,value_combo --top 10
  go run ./cmd/quant screen --all --json`,
	RunE: runScreen,
}

var (
	// Flags
	screenStrategies []string
	screenAll        bool
	screenList       bool
	screenFile       string
	screenTop        int
)

func init() {
	rootCmd.AddCommand(screenCmd)

	// Flags
	screenCmd.Flags().StringSliceVar(&screenStrategies, "strategy", nil, "전략 id (쉼표 구분)")
	screenCmd.Flags().BoolVar(&screenAll, "all", false, "모든 전략 실행")
	screenCmd.Flags().BoolVar(&screenList, "list", false, "전략 목록 출력")
	screenCmd.Flags().StringVar(&screenFile, "file", "", "전략 설정 파일 (기본: STRATEGY_CONFIG)")
	screenCmd.Flags().IntVar(&screenTop, "top", 0, "top_n 덮어쓰기 (-1 = 전체, 0 = 설정값 사용)")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// 1. Load strategy config
	path := screenFile
	if path == "" {
		path = cfg.Screening.StrategyPath
	}
	strategies, _, err := strategyconfig.Load(path)
	if err != nil {
		return fmt.Errorf("load strategy config %s: %w", path, err)
	}
	for _, w := range strategyconfig.Warn(strategies) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	if screenList {
		return printStrategyList(cmd, strategies)
	}

	ids := screenStrategies
	if screenAll {
		ids = strategies.IDs()
	}
	if len(ids) == 0 {
		return fmt.Errorf("--strategy or --all is required (available: %s)", strings.Join(strategies.IDs(), ", "))
	}

	// 2. Optional database
	ctx := context.Background()
	orch, closeDB, err := newOrchestrator(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	// 3. Run each strategy
	results := make([]*brain.RunResult, 0, len(ids))
	runID := brain.GenerateRunID()
	for _, id := range ids {
		if screenTop != 0 {
			if s, ok := strategies.Find(id); ok {
				n := screenTop
				s.TopN = &n
			}
		}

		result, err := orch.Run(ctx, brain.RunConfig{RunID: runID, Config: strategies, StrategyID: id})
		if err != nil {
			return fmt.Errorf("strategy %s: %w", id, err)
		}
		results = append(results, result)

		if !jsonOutput {
			printRunResult(cmd, result)
		}
	}

	if jsonOutput {
		return PrintJSON(out, results)
	}
	return nil
}

// newOrchestrator wires the loader and, when DATABASE_URL is set, the Postgres sources
func newOrchestrator(ctx context.Context, cfg *config.Config, log *logger.Logger) (*brain.Orchestrator, func(), error) {
	settings := brain.Settings{
		DataDir:     cfg.Screening.DataDir,
		DefaultTopN: cfg.Screening.DefaultTopN,
	}
	loader := s0_data.NewLoader(log)

	if !cfg.HasDatabase() {
		return brain.NewOrchestrator(loader, nil, nil, settings, log), func() {}, nil
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	orch := brain.NewOrchestrator(
		loader,
		s0_data.NewFinancialRepository(db.Pool),
		s0_data.NewPriceRepository(db.Pool),
		settings,
		log,
	)
	return orch, db.Close, nil
}

func printStrategyList(cmd *cobra.Command, strategies *strategyconfig.Config) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		return PrintJSON(out, strategies.Strategies)
	}

	PrintHeader(out, "Strategies", [][2]string{
		{"Config", strategies.Meta.ConfigID},
		{"Version", strategies.Meta.Version},
	})
	widths := []int{16, 14, 40}
	PrintTableHeader(out, []string{"id", "kind", "description"}, widths)
	for _, s := range strategies.Strategies {
		PrintTableRow(out, []string{s.ID, s.Kind, s.Description}, widths)
	}
	return nil
}

func printRunResult(cmd *cobra.Command, result *brain.RunResult) {
	out := cmd.OutOrStdout()

	PrintHeader(out, "Screening: "+result.StrategyID, [][2]string{
		{"Kind", result.Kind},
		{"Period", result.Period},
		{"Run ID", result.RunID},
		{"Config", result.Snapshot.ConfigHash[:12]},
	})
	for _, snap := range result.QualitySnapshots {
		PrintQuality(out, snap)
	}
	fmt.Fprintln(out)
	PrintRanking(out, result.Ranking)
	PrintSuccess(out, fmt.Sprintf("%s completed in %.2fs", result.StrategyID, result.Duration.Seconds()))
}
