package runtime

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/ports"
)

// HaltTraceError is the error recorded on the Initialization trace entry of a halted session.
const HaltTraceError = "Halting due to critical error in InitializationStage."

const (
	haltExplicitPrefix = "Processing halted: Initialization failed with error: "
	haltContextPrefix  = "Processing halted: Initialization failed with error from context: "
	haltMissingRoot    = "Processing halted: Graph initialization failed (missing root_node_id)."
	reasonMissingRoot  = "InitializationStage did not provide root_node_id."
)

// HaltDecision is the outcome of the initialization guard.
type HaltDecision struct {
	Halted  bool
	Message string // Final answer of the halted session
	Reason  string
}

// CheckHalt decides whether the pipeline must stop after a stage.
// Only the Initialization stage can halt. Conditions, in priority order: an
// explicit ErrorMessage on the output, an error published in the Initialization
// result (or, when that record was rejected at merge, an "error" key in the raw
// update), and a missing root_node_id (which also covers a faulted stage whose
// output is nil).
func CheckHalt(kind domain.StageKind, out *ports.StageOutput, c *domain.AccumulatedContext) HaltDecision {
	if kind != domain.StageInitialization {
		return HaltDecision{}
	}

	if out != nil && out.ErrorMessage != "" {
		return HaltDecision{
			Halted:  true,
			Message: haltExplicitPrefix + out.ErrorMessage,
			Reason:  out.ErrorMessage,
		}
	}

	init, ok := domain.ResultOf[*domain.InitializationResult](c)
	var contextErr string
	switch {
	case ok:
		contextErr = init.Error
	case out != nil:
		contextErr = rawInitError(out.Raw)
	}
	if contextErr != "" {
		return HaltDecision{
			Halted:  true,
			Message: haltContextPrefix + contextErr,
			Reason:  contextErr,
		}
	}

	if !ok || init.RootNodeID == "" {
		return HaltDecision{
			Halted:  true,
			Message: haltMissingRoot,
			Reason:  reasonMissingRoot,
		}
	}
	return HaltDecision{}
}

// rawInitError reads the "error" key of an Initialization update that did not
// decode, from either {initialization: {...}} or the bare map.
func rawInitError(raw map[string]any) string {
	inner := raw
	if nested, ok := raw[domain.StageInitialization.String()].(map[string]any); ok {
		inner = nested
	}
	return errorText(inner["error"])
}

// errorText renders a published error value, treating zero and empty values as no error.
func errorText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case error:
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return ""
		}
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	default:
		if rv.IsZero() {
			return ""
		}
	}
	return fmt.Sprint(v)
}
