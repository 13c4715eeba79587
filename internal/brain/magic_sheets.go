package brain

import (
	"path/filepath"
	"strings"

	"github.com/wonny/aegis-screen/internal/contracts"
	"github.com/wonny/aegis-screen/internal/selection"
)

// Sheet names of the per-metric Magic Formula workbook
const (
	SheetPER = "PER"
	SheetROA = "ROA"
)

// MagicBySheets ranks a workbook holding one PER sheet and one ROA sheet.
// Loss makers (PER <= 0) and companies without ROA are dropped before ranking,
// so only companies present in both sheets survive.
func (o *Orchestrator) MagicBySheets(path string, n int) (*contracts.Ranking, error) {
	path = o.resolvePath(path)
	period := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	per, err := o.loader.LoadMetricSheet(path, SheetPER, contracts.MetricPER, period)
	if err != nil {
		return nil, err
	}
	roa, err := o.loader.LoadMetricSheet(path, SheetROA, contracts.MetricROA, period)
	if err != nil {
		return nil, err
	}

	ranker := selection.NewRanker(selection.Options{
		Missing:         selection.MissingDrop,
		RequirePositive: []string{contracts.MetricPER},
	}, o.logger)

	ranking, err := ranker.MagicFormula(roa, per, period, n)
	if err != nil {
		return nil, err
	}

	o.logger.WithFields(map[string]interface{}{
		"path":     path,
		"per_rows": per.Len(),
		"roa_rows": roa.Len(),
		"ranked":   ranking.Len(),
	}).Info("Sheet magic formula completed")

	return ranking, nil
}
