package schema_test

import (
	"errors"
	"testing"

	"github.com/aretw0/nexusmind/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	Name   string    `json:"name" mapstructure:"name" validate:"required"`
	Count  int       `json:"count" mapstructure:"count" validate:"gte=0"`
	Vector []float64 `json:"vector,omitempty" mapstructure:"vector" validate:"omitempty,len=4,dive,gte=0,lte=1"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		input    probe
		wantKeys []string
	}{
		{name: "valid", input: probe{Name: "a", Vector: []float64{0, 0.5, 1, 1}}},
		{name: "missing name", input: probe{}, wantKeys: []string{"name"}},
		{name: "negative count", input: probe{Name: "a", Count: -1}, wantKeys: []string{"count"}},
		{name: "short vector", input: probe{Name: "a", Vector: []float64{1}}, wantKeys: []string{"vector"}},
		{name: "component out of range", input: probe{Name: "a", Vector: []float64{0, 0, 0, 2}}, wantKeys: []string{"vector[3]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.Struct(&tt.input)
			if len(tt.wantKeys) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errs := schema.ValidationErrors(err)
			require.Len(t, errs, len(tt.wantKeys))
			for i, key := range tt.wantKeys {
				var ve *schema.ValidationError
				require.True(t, errors.As(errs[i], &ve))
				assert.Equal(t, key, ve.Key)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var out probe
	err := schema.Decode(map[string]any{
		"name":   "hypothesis",
		"count":  "3",
		"vector": []any{0.1, 0.2, 0.3, 0.4},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, probe{Name: "hypothesis", Count: 3, Vector: []float64{0.1, 0.2, 0.3, 0.4}}, out)

	err = schema.Decode(map[string]any{"count": 1}, &out)
	assert.NotEmpty(t, schema.ValidationErrors(err))

	var fromStruct probe
	require.NoError(t, schema.Decode(probe{Name: "copy"}, &fromStruct))
	assert.Equal(t, "copy", fromStruct.Name)
}

func TestDecode_TypeMismatch(t *testing.T) {
	var out probe
	err := schema.Decode(map[string]any{"name": "x", "vector": "not a list"}, &out)
	require.Error(t, err)
	assert.Nil(t, schema.ValidationErrors(err))
}

func TestAggregateError(t *testing.T) {
	aggr := &schema.AggregateError{Errors: []error{
		&schema.ValidationError{Key: "a", Reason: "required"},
		&schema.ValidationError{Key: "b", Reason: "gte=0", Value: -1},
	}}
	assert.Contains(t, aggr.Error(), "2 validation errors")
	assert.Contains(t, aggr.Error(), `field "b": gte=0 (got -1)`)
	assert.Nil(t, schema.ValidationErrors(errors.New("plain")))
}
