package contract

import (
	"time"

	"github.com/alexanderramin/pistemind/internal/domain"
)

type CreateSessionRequest struct {
	// SessionID resumes an existing session when it is found.
	SessionID string  `json:"session_id,omitempty"`
	Interface string  `json:"interface,omitempty"`
	UserID    *string `json:"user_id,omitempty"`
}

type ChoiceRequest struct {
	Choice string `json:"choice"`
}

type ExplanationRequest struct {
	Explanation string `json:"explanation"`
}

type AbandonRequest struct {
	Reason string `json:"reason,omitempty"`
}

type CleanupRequest struct {
	// OlderThan is a Go duration string such as "24h".
	OlderThan string `json:"older_than,omitempty"`
}

type CleanupResponse struct {
	Abandoned int `json:"abandoned"`
}

type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type Answer struct {
	Choice      string `json:"choice"`
	Explanation string `json:"explanation,omitempty"`
}

type Score struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Score int    `json:"score"`
}

type Feedback struct {
	Scores           []Score `json:"scores"`
	Total            int     `json:"total"`
	Acknowledgment   string  `json:"acknowledgment"`
	Analysis         string  `json:"analysis"`
	AdvancedConcepts string  `json:"advanced_concepts"`
	BridgeToMastery  string  `json:"bridge_to_mastery"`
}

// Session is the external view of a training session. The recommended
// option stays hidden until feedback exists or the session has ended.
type Session struct {
	ID                       string    `json:"session_id"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
	State                    string    `json:"state"`
	Interface                string    `json:"interface"`
	ModelUsed                string    `json:"model_used"`
	UserID                   *string   `json:"user_id,omitempty"`
	Scenario                 string    `json:"scenario,omitempty"`
	Options                  []Option  `json:"options,omitempty"`
	Recommended              string    `json:"recommended,omitempty"`
	Answer                   *Answer   `json:"answer,omitempty"`
	Feedback                 *Feedback `json:"feedback,omitempty"`
	TimeToChoiceSeconds      *float64  `json:"time_to_choice_seconds,omitempty"`
	TimeToExplanationSeconds *float64  `json:"time_to_explanation_seconds,omitempty"`
	TotalSessionSeconds      *float64  `json:"total_session_seconds,omitempty"`
	ErrorMessage             string    `json:"error_message,omitempty"`
	ErrorCount               int       `json:"error_count"`
	Version                  int       `json:"version"`
}

func FromSession(s *domain.TrainingSession) Session {
	out := Session{
		ID:                       s.ID,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
		State:                    string(s.State),
		Interface:                s.Interface,
		ModelUsed:                s.ModelUsed,
		UserID:                   s.UserID,
		TimeToChoiceSeconds:      seconds(s.TimeToChoice),
		TimeToExplanationSeconds: seconds(s.TimeToExplanation),
		TotalSessionSeconds:      seconds(s.TotalSessionTime),
		ErrorMessage:             s.ErrorMessage,
		ErrorCount:               s.ErrorCount,
		Version:                  s.Version,
	}
	if s.Scenario != nil {
		out.Scenario = s.Scenario.Text
	}
	if s.Choices != nil {
		out.Options = Options(*s.Choices)
		if s.Feedback != nil || s.State.IsTerminal() {
			out.Recommended = s.Choices.Recommended().Letter()
		}
	}
	if s.Answer != nil {
		out.Answer = &Answer{Choice: s.Answer.Choice.Letter(), Explanation: s.Answer.Explanation}
	}
	if s.Feedback != nil {
		fb := FromFeedback(*s.Feedback)
		out.Feedback = &fb
	}
	return out
}

// Options labels each option with its letter.
func Options(c domain.Choices) []Option {
	out := make([]Option, len(c.Options))
	for i, text := range c.Options {
		out[i] = Option{Letter: domain.Choice(i).Letter(), Text: text}
	}
	return out
}

func FromFeedback(f domain.Feedback) Feedback {
	rubric := f.Rubric()
	scores := make([]Score, len(rubric))
	for i, r := range rubric {
		scores[i] = Score{Key: r.Key, Label: r.Label, Score: r.Score}
	}
	return Feedback{
		Scores:           scores,
		Total:            f.Total(),
		Acknowledgment:   f.Acknowledgment,
		Analysis:         f.Analysis,
		AdvancedConcepts: f.AdvancedConcepts,
		BridgeToMastery:  f.BridgeToMastery,
	}
}

type SessionSummary struct {
	ID                string    `json:"session_id"`
	CreatedAt         time.Time `json:"created_at"`
	State             string    `json:"state"`
	Interface         string    `json:"interface"`
	UserChoice        string    `json:"user_choice,omitempty"`
	RecommendedChoice string    `json:"recommended_choice,omitempty"`
	ChoiceCorrect     *bool     `json:"choice_correct,omitempty"`
	TotalSeconds      *float64  `json:"total_seconds,omitempty"`
}

func FromSummaries(in []domain.SessionSummary) []SessionSummary {
	out := make([]SessionSummary, len(in))
	for i, s := range in {
		out[i] = SessionSummary{
			ID:            s.ID,
			CreatedAt:     s.CreatedAt,
			State:         string(s.State),
			Interface:     s.Interface,
			ChoiceCorrect: s.ChoiceCorrect,
			TotalSeconds:  seconds(s.TotalTime),
		}
		if s.UserChoice != nil {
			out[i].UserChoice = s.UserChoice.Letter()
		}
		if s.RecommendedChoice != nil {
			out[i].RecommendedChoice = s.RecommendedChoice.Letter()
		}
	}
	return out
}

type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"event_type"`
	Data      map[string]any `json:"event_data,omitempty"`
}

func FromEvents(in []domain.SessionEvent) []Event {
	out := make([]Event, len(in))
	for i, e := range in {
		out[i] = Event{ID: e.ID, Timestamp: e.Timestamp, Type: string(e.Type), Data: e.Data}
	}
	return out
}

func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	v := d.Seconds()
	return &v
}
