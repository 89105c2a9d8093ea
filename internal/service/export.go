package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/pistemind/internal/domain"
)

// ExportedSession is a session as written to disk by Export.
type ExportedSession struct {
	Base     string
	Scenario domain.Scenario
	Choices  domain.Choices
	Answer   domain.Answer
	Feedback domain.Feedback
}

type questionFile struct {
	Scenario  string   `json:"scenario"`
	Options   []string `json:"options"`
	Recommend string   `json:"recommend"`
}

type answerFile struct {
	Choice      string `json:"choice"`
	Explanation string `json:"explanation"`
}

// Export writes a finished session as three JSON files named
// session_<UTC timestamp>_{question,answer,feedback}.json under dir and
// returns the common path prefix.
func Export(dir string, sess *domain.TrainingSession) (string, error) {
	if sess.Scenario == nil || sess.Choices == nil || sess.Answer == nil || sess.Feedback == nil {
		return "", missing(sess.ID, "scenario, choices, answer and feedback are all required for export")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	base := filepath.Join(dir, "session_"+sess.CreatedAt.UTC().Format("20060102-150405"))

	files := []struct {
		suffix string
		v      any
	}{
		{"question", questionFile{
			Scenario:  sess.Scenario.Text,
			Options:   sess.Choices.Options,
			Recommend: sess.Choices.Recommended().Letter(),
		}},
		{"answer", answerFile{Choice: sess.Answer.Choice.Letter(), Explanation: sess.Answer.Explanation}},
		{"feedback", sess.Feedback},
	}
	for _, f := range files {
		if err := writeJSON(base+"_"+f.suffix+".json", f.v); err != nil {
			return "", err
		}
	}
	return base, nil
}

// LoadExport reads the files written by Export for base and validates them.
func LoadExport(base string) (*ExportedSession, error) {
	var q questionFile
	if err := readJSON(base+"_question.json", &q); err != nil {
		return nil, err
	}
	rec, err := domain.ParseChoice(q.Recommend)
	if err != nil {
		return nil, fmt.Errorf("question file: %w", err)
	}
	var a answerFile
	if err := readJSON(base+"_answer.json", &a); err != nil {
		return nil, err
	}
	choice, err := domain.ParseChoice(a.Choice)
	if err != nil {
		return nil, fmt.Errorf("answer file: %w", err)
	}
	var fb domain.Feedback
	if err := readJSON(base+"_feedback.json", &fb); err != nil {
		return nil, err
	}

	out := &ExportedSession{
		Base:     base,
		Scenario: domain.Scenario{Text: q.Scenario},
		Choices:  domain.Choices{Options: q.Options, Recommend: int(rec)},
		Answer:   domain.Answer{Choice: choice, Explanation: a.Explanation},
		Feedback: fb,
	}
	if err := errors.Join(out.Scenario.Validate(), out.Choices.Validate(), out.Answer.Validate(), out.Feedback.Validate()); err != nil {
		return nil, fmt.Errorf("exported session %s: %w", base, err)
	}
	return out, nil
}

// ListExports returns the path prefix of every export in dir, oldest first.
func ListExports(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "session_*_question.json"))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(m, "_question.json"))
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
