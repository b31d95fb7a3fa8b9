package trace

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"gobmc/expr"
)

// dumpEvent is Event flattened into plain strings, the shape
// graph/formula.go's toYaml marshals its own Formula values into: no
// live expr.Context handles survive a YAML round trip, only their
// rendered String() form.
type dumpEvent struct {
	Kind       string `yaml:"kind"`
	Location   string `yaml:"location"`
	Variable   string `yaml:"variable,omitempty"`
	Value      string `yaml:"value,omitempty"`
	Callee     string `yaml:"callee,omitempty"`
	SourceName string `yaml:"source_name,omitempty"`
	Pos        string `yaml:"pos,omitempty"`
}

func (k EventKind) String() string {
	switch k {
	case Call:
		return "call"
	case Truncated:
		return "truncated"
	}
	return "assign"
}

// Dump renders tr as YAML for display, grounded on the teacher's own
// toYaml helper for its symbolic Formula values.
func Dump(ctx *expr.Context, tr *Trace) (string, error) {
	events := make([]dumpEvent, len(tr.Events))
	for i, e := range tr.Events {
		d := dumpEvent{Kind: e.Kind.String(), Location: e.Location.Name(), SourceName: e.SourceName}
		if e.Variable != nil {
			d.Variable = e.Variable.Name()
			d.Value = ctx.String(e.Value)
		}
		if e.Pos.IsValid() {
			d.Pos = e.Pos.String()
		}
		if e.Kind == Call {
			d.Callee = e.Callee
		}
		events[i] = d
	}
	out, err := yaml.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("trace: marshal: %w", err)
	}
	return string(out), nil
}
