package runtime

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/ports"
	"github.com/aretw0/nexusmind/pkg/schema"
)

// ErrKindMismatch is returned when a stage publishes a result of another stage's kind.
var ErrKindMismatch = errors.New("result kind does not match stage")

// MergeError represents a context update rejected at the merge boundary.
type MergeError struct {
	Stage domain.StageKind
	Err   error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s context update rejected: %v", e.Stage.DisplayName(), e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// decodeUpdate turns a stage output into the validated record for the stage's kind.
func decodeUpdate(kind domain.StageKind, out *ports.StageOutput) (domain.StageResult, error) {
	result := out.Result
	if isNil(result) {
		decoded, err := decodeRaw(kind, out.Raw)
		if err != nil {
			return nil, &MergeError{Stage: kind, Err: err}
		}
		result = decoded
	}

	if result.Kind() != kind {
		return nil, &MergeError{
			Stage: kind,
			Err:   fmt.Errorf("%w: got %s", ErrKindMismatch, result.Kind()),
		}
	}
	if err := schema.Struct(result); err != nil {
		return nil, &MergeError{Stage: kind, Err: err}
	}
	return result, nil
}

// decodeRaw accepts either {stage_name: {...}} or the bare inner map.
func decodeRaw(kind domain.StageKind, raw map[string]any) (domain.StageResult, error) {
	inner := raw
	if len(raw) == 1 {
		for key, value := range raw {
			other, err := domain.ParseStageKind(key)
			if err != nil {
				break
			}
			if other != kind {
				return nil, fmt.Errorf("%w: got %s", ErrKindMismatch, other)
			}
			nested, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: expected an object, got %T", key, value)
			}
			inner = nested
		}
	}

	result, err := domain.NewResult(kind)
	if err != nil {
		return nil, err
	}
	if err := schema.Decode(inner, result); err != nil {
		return nil, err
	}
	return result, nil
}

func isNil(r domain.StageResult) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
