package skeleton

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Presets(t *testing.T) {
	tests := []struct {
		name string
		want []int
	}{
		{name: "left_upper_arm", want: []int{5, 6}},
		{name: "right_forearm", want: []int{3, 4}},
		{name: "left_full_leg", want: []int{11, 12, 13}},
		{name: "left_foot", want: []int{13}},
		{name: "torso", want: []int{1, 2, 5, 8, 11}},
		{name: "head", want: []int{0, 14, 15, 16, 17}},
		{name: "head_and_neck", want: []int{0, 1, 14, 15, 16, 17}},
		{name: "upper_body", want: []int{0, 1, 2, 3, 4, 5, 6, 7, 14, 15, 16, 17}},
		{name: "lower_body", want: []int{8, 9, 10, 11, 12, 13}},
		{name: "arms", want: []int{2, 3, 4, 5, 6, 7}},
		{name: "left_side", want: []int{5, 6, 7, 11, 12, 13, 15, 17}},
		{name: "right_side", want: []int{2, 3, 4, 8, 9, 10, 14, 16}},
		{name: "all", want: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Lookup(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Indices())
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("left_tentacle")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPreset))

	var upe *UnknownPresetError
	require.True(t, errors.As(err, &upe))
	assert.Equal(t, "left_tentacle", upe.Name)
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 25)
	assert.IsIncreasing(t, names)
	for _, n := range names {
		_, err := Lookup(n)
		assert.NoError(t, err, n)
	}
}

func TestIndexSetOf(t *testing.T) {
	s, err := IndexSetOf(7, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, s.Indices())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(7))
	assert.False(t, s.Has(18))
	assert.False(t, s.Has(-1))

	_, err = IndexSetOf(18)
	assert.Error(t, err)

	empty, err := IndexSetOf()
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Empty(t, empty.Indices())
}

func TestRegionSet(t *testing.T) {
	s, ok := RegionSet(RegionNeck)
	require.True(t, ok)
	assert.Equal(t, []int{Neck}, s.Indices())

	_, ok = RegionSet(Region("tail"))
	assert.False(t, ok)
}

func TestBodyName(t *testing.T) {
	assert.Equal(t, "LWrist", BodyName(LWrist))
	assert.Equal(t, "LEar", BodyName(17))
	assert.Equal(t, "", BodyName(18))
}
