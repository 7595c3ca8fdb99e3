package evaluator

import (
	"github.com/gurenolun/fly-eval/internal/domain"
)

// Summarize groups records by task and computes per-task aggregates.
func Summarize(records []domain.Record) map[domain.TaskID]domain.TaskSummary {
	byTask := make(map[domain.TaskID][]domain.Record)
	for _, r := range records {
		byTask[r.TaskID] = append(byTask[r.TaskID], r)
	}

	out := make(map[domain.TaskID]domain.TaskSummary, len(byTask))
	for taskID, group := range byTask {
		out[taskID] = summarizeTask(taskID, group)
	}
	return out
}

// Profile groups records by model and computes per-model aggregates,
// including a per-task breakdown.
func Profile(records []domain.Record) map[string]domain.ModelProfile {
	byModel := make(map[string][]domain.Record)
	for _, r := range records {
		byModel[r.ModelName] = append(byModel[r.ModelName], r)
	}

	out := make(map[string]domain.ModelProfile, len(byModel))
	for model, group := range byModel {
		profile := domain.ModelProfile{
			ModelName: model,
			Records:   len(group),
			ByTask:    make(map[domain.TaskID]domain.TaskSummary),
		}

		var eligible int
		var totalSum, gradeSum float64
		byTask := make(map[domain.TaskID][]domain.Record)
		for _, r := range group {
			if r.Adjudication.Eligible {
				eligible++
			}
			totalSum += r.Scores.Total
			gradeSum += r.GradeScore
			byTask[r.TaskID] = append(byTask[r.TaskID], r)
		}
		profile.EligibleRate = float64(eligible) / float64(len(group))
		profile.MeanTotal = totalSum / float64(len(group))
		profile.MeanGradeScore = gradeSum / float64(len(group))

		for taskID, taskGroup := range byTask {
			profile.ByTask[taskID] = summarizeTask(taskID, taskGroup)
		}
		out[model] = profile
	}
	return out
}

func summarizeTask(taskID domain.TaskID, records []domain.Record) domain.TaskSummary {
	summary := domain.TaskSummary{
		TaskID:         taskID,
		Records:        len(records),
		GradeHistogram: make(map[domain.Grade]int),
	}
	if len(records) == 0 {
		return summary
	}

	var eligible int
	var totalSum, constraintSum, gradeSum float64
	for _, r := range records {
		if r.Adjudication.Eligible {
			eligible++
		}
		totalSum += r.Scores.Total
		constraintSum += r.Scores.ConstraintSatisfaction
		gradeSum += r.GradeScore
		summary.GradeHistogram[r.Overall]++
	}

	n := float64(len(records))
	summary.EligibleRate = float64(eligible) / n
	summary.MeanTotal = totalSum / n
	summary.MeanConstraint = constraintSum / n
	summary.MeanGradeScore = gradeSum / n
	return summary
}
