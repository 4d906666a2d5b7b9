package engine

import (
	"fmt"

	"budget-auditor/internal/models"
	"budget-auditor/pkg/utils"
)

// SpikeReason renders a deterministic, human-readable explanation for a
// spike alert. Pure and total: it never fails for well-formed input.
func SpikeReason(ev *models.BudgetEvent, trigger *SpikeTrigger, multiplier float64) string {
	return fmt.Sprintf(
		"spending spike in %s / %s: %s paid %s, %s the sector average of %s (threshold %s)",
		ev.State,
		ev.Sector,
		ev.Contractor,
		utils.FormatCrores(ev.Amount),
		utils.FormatRatio(trigger.Ratio),
		utils.FormatCrores(trigger.Baseline.MeanAmount),
		utils.FormatRatio(multiplier),
	)
}

// ThresholdReason renders a deterministic, human-readable explanation for a
// cumulative-threshold alert.
func ThresholdReason(ev *models.BudgetEvent, snap models.ContractorSnapshot, ceiling float64) string {
	return fmt.Sprintf(
		"contractor %s crossed the cumulative spend ceiling: %s across %d payments (ceiling %s)",
		ev.Contractor,
		utils.FormatCrores(snap.CumulativeAmount),
		snap.PaymentCount,
		utils.FormatCrores(ceiling),
	)
}
