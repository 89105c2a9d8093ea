package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/pistemind/internal/domain"
)

var _ pflag.Value = (*stateValue)(nil)

// stateValue is an optional --state flag restricted to known states.
type stateValue struct {
	state *domain.SessionState
}

func (v *stateValue) String() string {
	if v.state == nil {
		return ""
	}
	return string(*v.state)
}

func (v *stateValue) Set(s string) error {
	state := domain.SessionState(strings.ToLower(strings.TrimSpace(s)))
	if !state.Valid() {
		names := make([]string, len(domain.AllSessionStates))
		for i, st := range domain.AllSessionStates {
			names[i] = string(st)
		}
		return fmt.Errorf("unknown state %q (want one of %s)", s, strings.Join(names, ", "))
	}
	v.state = &state
	return nil
}

func (v *stateValue) Type() string { return "state" }

func printJSON(cmd interface{ OutOrStdout() io.Writer }, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
