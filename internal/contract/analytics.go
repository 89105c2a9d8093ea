package contract

import "github.com/alexanderramin/pistemind/internal/domain"

type UserPerformance struct {
	UserID                 string  `json:"user_id"`
	Total                  int     `json:"total_sessions"`
	Completed              int     `json:"completed_sessions"`
	Abandoned              int     `json:"abandoned_sessions"`
	AverageDurationSeconds float64 `json:"avg_session_duration"`
	ChoiceAccuracy         float64 `json:"choice_accuracy"`
}

func FromUserPerformance(p *domain.UserPerformance) UserPerformance {
	return UserPerformance{
		UserID:                 p.UserID,
		Total:                  p.Total,
		Completed:              p.Completed,
		Abandoned:              p.Abandoned,
		AverageDurationSeconds: p.AverageDuration.Seconds(),
		ChoiceAccuracy:         p.ChoiceAccuracy,
	}
}

type SystemAnalytics struct {
	Total                  int            `json:"total_sessions"`
	CompletionRate         float64        `json:"completion_rate"`
	AverageDurationSeconds float64        `json:"avg_session_duration"`
	AbandonmentByState     map[string]int `json:"abandonment_points"`
	PopularChoices         map[string]int `json:"popular_choices"`
}

func FromSystemAnalytics(a *domain.SystemAnalytics) SystemAnalytics {
	byState := make(map[string]int, len(a.AbandonmentByState))
	for s, n := range a.AbandonmentByState {
		byState[string(s)] = n
	}
	popular := make(map[string]int, len(a.PopularChoices))
	for k, n := range a.PopularChoices {
		popular[k] = n
	}
	return SystemAnalytics{
		Total:                  a.Total,
		CompletionRate:         a.CompletionRate,
		AverageDurationSeconds: a.AverageDuration.Seconds(),
		AbandonmentByState:     byState,
		PopularChoices:         popular,
	}
}
