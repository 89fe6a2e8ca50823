package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sec(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func blocked(start, end int) Range {
	return Range{Kind: Blocked, Start: sec(start), End: sec(end)}
}

func TestNewRange(t *testing.T) {
	_, err := NewRange(Blocked, sec(10), sec(10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = NewRange(Blocked, sec(20), sec(10))
	assert.ErrorIs(t, err, ErrInvalidRange)

	r, err := NewRange(OpeningCredits, sec(0), sec(90))
	require.NoError(t, err)
	assert.Equal(t, OpeningCredits, r.Kind)
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name     string
		input    []Range
		expected []Range
	}{
		{
			name:     "empty",
			input:    nil,
			expected: nil,
		},
		{
			name:     "single range",
			input:    []Range{blocked(5, 10)},
			expected: []Range{blocked(5, 10)},
		},
		{
			name:     "disjoint ranges are sorted",
			input:    []Range{blocked(50, 60), blocked(5, 10)},
			expected: []Range{blocked(5, 10), blocked(50, 60)},
		},
		{
			name:     "overlapping ranges",
			input:    []Range{blocked(20, 60), blocked(50, 100)},
			expected: []Range{blocked(20, 100)},
		},
		{
			name:     "nested range",
			input:    []Range{blocked(10, 100), blocked(30, 40)},
			expected: []Range{blocked(10, 100)},
		},
		{
			name:     "adjacent ranges",
			input:    []Range{blocked(10, 20), blocked(20, 30)},
			expected: []Range{blocked(10, 30)},
		},
		{
			name:     "chain reaching back",
			input:    []Range{blocked(70, 90), blocked(0, 10), blocked(5, 75), blocked(200, 210)},
			expected: []Range{blocked(0, 90), blocked(200, 210)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Union(tt.input)
			if len(tt.expected) == 0 {
				assert.Empty(t, result)
				return
			}
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestUnion_DoesNotMutateInput(t *testing.T) {
	input := []Range{blocked(50, 100), blocked(20, 60)}
	_ = Union(input)
	assert.Equal(t, blocked(50, 100), input[0])
}

func TestFind(t *testing.T) {
	rs := Union([]Range{blocked(20, 60), blocked(50, 100)})

	r, ok := Find(rs, sec(20))
	assert.True(t, ok)
	assert.Equal(t, sec(100), r.End)

	_, ok = Find(rs, sec(100))
	assert.False(t, ok, "end is exclusive")

	_, ok = Find(rs, sec(19))
	assert.False(t, ok)
}

func TestBlocksAndCredits(t *testing.T) {
	rs := []Range{
		blocked(0, 5),
		{Kind: OpeningCredits, Start: sec(10), End: sec(40)},
		{Kind: ClosingCredits, Start: sec(500), End: sec(560)},
	}
	assert.Len(t, Blocks(rs), 1)
	assert.Len(t, Credits(rs), 2)
}

func TestWindow(t *testing.T) {
	w := Window{Start: sec(10), End: sec(100)}
	assert.True(t, w.Contains(sec(10)))
	assert.True(t, w.Contains(sec(100)))
	assert.False(t, w.Contains(sec(101)))
	assert.Equal(t, sec(10), w.Clamp(sec(3)))
	assert.Equal(t, sec(100), w.Clamp(sec(300)))

	assert.True(t, Window{}.IsEmpty())
	assert.False(t, Window{}.Contains(0))
}

func TestParseClassification(t *testing.T) {
	assert.Equal(t, OnDemand, ParseClassification("on_demand"))
	assert.Equal(t, Live, ParseClassification("live"))
	assert.Equal(t, DVR, ParseClassification("dvr"))
	assert.Equal(t, Unknown, ParseClassification("radio"))
}
