package transform

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsets_ForFrames(t *testing.T) {
	tests := []struct {
		name   string
		policy MismatchPolicy
		want   []float64
	}{
		{"loop", Loop, []float64{0.0, 0.1, 0.2, 0.0, 0.1}},
		{"repeat", Repeat, []float64{0.0, 0.1, 0.2, 0.2, 0.2}},
		{"truncate", Truncate, []float64{0.0, 0.1, 0.2, 0, 0}},
	}

	offsets := List(0.0, 0.1, 0.2)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := offsets.ForFrames(5, "x", tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOffsets_LongerThanSequence(t *testing.T) {
	for _, p := range Policies {
		got, err := List(1, 2, 3, 4).ForFrames(2, "x", p)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2}, got, "policy %s", p)
	}
}

func TestOffsets_ScalarAppliesEverywhere(t *testing.T) {
	for _, p := range Policies {
		got, err := Scalar(0.5).ForFrames(3, "y", p)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, got)
	}

	var zero Offsets
	assert.Equal(t, 0.0, zero.At(7, Loop))
	assert.Equal(t, []float64{0}, zero.Values())
}

func TestOffsets_EmptyList(t *testing.T) {
	for _, p := range []MismatchPolicy{Loop, Repeat} {
		_, err := List().ForFrames(3, "x", p)
		var target *InvalidOffsetSequenceError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "x", target.Axis)
		assert.ErrorIs(t, err, ErrInvalidOffsets)
	}

	got, err := List().ForFrames(3, "x", Truncate)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, Truncate, p)

	p, err = ParsePolicy("loop")
	require.NoError(t, err)
	assert.Equal(t, Loop, p)

	_, err = ParsePolicy("bounce")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestOffsets_JSON(t *testing.T) {
	var o Offsets
	require.NoError(t, json.Unmarshal([]byte(`0.25`), &o))
	assert.False(t, o.IsList())
	assert.Equal(t, []float64{0.25}, o.Values())

	require.NoError(t, json.Unmarshal([]byte(`[1, 2]`), &o))
	assert.True(t, o.IsList())
	assert.Equal(t, []float64{1, 2}, o.Values())

	data, err := json.Marshal(List(1, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(data))

	data, err = json.Marshal(Scalar(3))
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(data))

	assert.Error(t, json.Unmarshal([]byte(`"x"`), &o))
}
