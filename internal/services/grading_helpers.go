package services

import (
	"math"
	"slices"
	"strings"

	"github.com/SAP-F-2025/teaching-assistant/internal/models"
)

// ===== GRADING UTILITIES =====

// gradeObjective returns the earned share of the points (0..1) and whether the
// answer is fully correct
func gradeObjective(qt models.QuestionType, correct, answer []string) (float64, bool) {
	switch qt {
	case models.SingleChoice, models.TrueFalse:
		if len(answer) == 1 && len(correct) == 1 && answer[0] == correct[0] {
			return 1.0, true
		}
		return 0.0, false
	case models.MultipleChoice:
		return gradeMultipleChoice(correct, answer)
	}
	return 0.0, false
}

// gradeMultipleChoice gives full credit for the exact set; otherwise wrong
// picks and missed keys each cancel one right pick
func gradeMultipleChoice(correct, answer []string) (float64, bool) {
	if len(correct) == 0 {
		return 0.0, false
	}
	if slices.Equal(sortedCopy(answer), sortedCopy(correct)) {
		return 1.0, true
	}
	if len(correct) == 1 {
		return 0.0, false
	}

	answerSet := make(map[string]bool, len(answer))
	for _, a := range answer {
		answerSet[a] = true
	}
	correctSet := make(map[string]bool, len(correct))
	for _, c := range correct {
		correctSet[c] = true
	}

	right, wrong := 0, 0
	for a := range answerSet {
		if correctSet[a] {
			right++
		} else {
			wrong++
		}
	}
	for c := range correctSet {
		if !answerSet[c] {
			wrong++
		}
	}

	return math.Max(0.0, float64(right-wrong)/float64(len(correctSet))), false
}

// normalizeAnswer trims the submitted values and folds case the way the answer key is stored
func normalizeAnswer(qt models.QuestionType, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		switch qt {
		case models.SingleChoice, models.MultipleChoice:
			v = strings.ToUpper(v)
		case models.TrueFalse:
			v = strings.ToLower(v)
		}
		if qt != models.ShortAnswer && slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func scaleScore(ratio float64, points int) float64 {
	return roundScore(ratio * float64(points))
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedCopy(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
