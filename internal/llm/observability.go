package llm

import "github.com/alexanderramin/pistemind/internal/logging"

// LLMCallEvent records metadata about a single generation call.
type LLMCallEvent struct {
	Task      TaskType
	Provider  Provider
	Model     string
	LatencyMs int64
	Attempts  int
	Success   bool
	ErrorCode string
}

// Observer receives events about generation calls for logging and metrics.
type Observer interface {
	OnCallComplete(event LLMCallEvent)
}

// LogObserver writes call events to a structured logger.
type LogObserver struct {
	log *logging.Logger
}

func NewLogObserver(log *logging.Logger) *LogObserver {
	return &LogObserver{log: log.With("component", "llm")}
}

func (o *LogObserver) OnCallComplete(event LLMCallEvent) {
	kv := []any{
		"task", event.Task,
		"provider", event.Provider,
		"model", event.Model,
		"latency_ms", event.LatencyMs,
		"attempts", event.Attempts,
	}
	if event.Success {
		o.log.Info("llm_call", kv...)
		return
	}
	o.log.Warn("llm_call failed", append(kv, "error_code", event.ErrorCode)...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(LLMCallEvent) {}
