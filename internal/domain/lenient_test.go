package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   float64
		wantOK bool
	}{
		{`12.5`, 12.5, true},
		{`"7"`, 7, true},
		{`" 3.25 "`, 3.25, true},
		{`"soon"`, 0, false},
		{`null`, 0, true},
		{`{"until": 1}`, 0, false},
		{``, 0, false},
		{`"NaN"`, 0, false},
		{`"Inf"`, 0, false},
		{`"-Infinity"`, 0, false},
		{`"1e400"`, 0, false},
		{`1e400`, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := domain.Float(json.RawMessage(tc.raw))
			assert.Equal(t, tc.wantOK, ok)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestInt_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{`42.9`, 42, true},
		{`"-7"`, -7, true},
		{`1e30`, 0, false},
		{`"-1e30"`, 0, false},
		{`"NaN"`, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := domain.Int(json.RawMessage(tc.raw))
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFloatMap_DropsNonFinite(t *testing.T) {
	t.Parallel()

	got := domain.FloatMap(json.RawMessage(`{"2026-10": "NaN", "2026-11": "Inf", "2026-12": 4.5}`))
	assert.Equal(t, map[string]float64{"2026-12": 4.5}, got)
}

func TestIntMap_DropsMalformed(t *testing.T) {
	t.Parallel()

	got := domain.IntMap(json.RawMessage(`{"a": 3, "b": "x", "c": "4"}`))
	assert.Equal(t, map[string]int64{"a": 3, "c": 4}, got)

	assert.Empty(t, domain.IntMap(json.RawMessage(`[1,2]`)))
}

func TestObject_RejectsNonObjects(t *testing.T) {
	t.Parallel()

	_, ok := domain.Object(json.RawMessage(`"text"`))
	assert.False(t, ok)

	m, ok := domain.Object(json.RawMessage(` {"k": 1}`))
	assert.True(t, ok)
	assert.Len(t, m, 1)
}
