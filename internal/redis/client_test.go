package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t,
		[]string{"2024-11", "2024-12", "2025-01", "2025-02"},
		monthsBetween("2024-11", "2025-02"))

	assert.Equal(t, []string{"2024-05"}, monthsBetween("2024-05", "2024-05"))

	// inverted range yields nothing
	assert.Empty(t, monthsBetween("2025-01", "2024-01"))
}
