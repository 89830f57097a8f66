package tracking

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"
)

// celFilter wraps a compiled CEL program evaluated against each candidate
// event before it is handed to a consumer. When disabled, Match always
// returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (*celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return &celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("json", cel.DynType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return &celFilter{prog: prog, enabled: true}, nil
}

// Match evaluates the compiled expression against ev. When disabled, or
// when the compiled filter is nil, it returns true.
func (f *celFilter) Match(ev TrackedEvent) bool {
	if f == nil || !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(ev.Payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"headers": ev.Headers,
		"size":    int64(len(ev.Payload)),
		"text":    string(ev.Payload),
		"json":    jsonObj,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
