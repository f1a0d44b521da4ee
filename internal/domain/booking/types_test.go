package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCovers(t *testing.T) {
	t.Parallel()

	o := Order{
		ID:  "20250520185550349313",
		Day: "2025-05-22",
		Fields: map[string][]int{
			"221": {328228},
			"224": {328229, 328230},
		},
	}

	assert.True(t, o.Covers("2025-05-22", "221", 328228))
	assert.True(t, o.Covers("2025-05-22", "224", 328230))
	assert.False(t, o.Covers("2025-05-22", "224", 328228))
	assert.False(t, o.Covers("2025-05-22", "225", 328229))
	assert.False(t, o.Covers("2025-05-23", "221", 328228))
	assert.Equal(t, []string{"221", "224"}, o.ResourceIDs())
}

func TestOrderResourceIDs_NumericOrder(t *testing.T) {
	t.Parallel()

	o := Order{Fields: map[string][]int{"10": {1}, "9": {1}, "220": {1}}}

	assert.Equal(t, []string{"9", "10", "220"}, o.ResourceIDs())
}
