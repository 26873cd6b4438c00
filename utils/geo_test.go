package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateDistance(t *testing.T) {
	require.Zero(t, CalculateDistance(48.8566, 2.3522, 48.8566, 2.3522))

	// Paris -> London is roughly 344 km
	d := CalculateDistance(48.8566, 2.3522, 51.5074, -0.1278)
	require.InDelta(t, 344, d, 2)

	require.InDelta(t, d, CalculateDistance(51.5074, -0.1278, 48.8566, 2.3522), 1e-9)
}

func TestRoundKm(t *testing.T) {
	require.Equal(t, 12.35, RoundKm(12.3456))
}
