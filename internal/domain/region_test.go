package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in   string
		want Region
		err  bool
	}{
		{"US", "US", false},
		{"gb", "GB", false},
		{" fr ", "FR", false},
		{"", "", true},
		{"USA", "", true},
		{"U1", "", true},
		{"É", "", true},
		{"  ", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRegion(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrInvalidRegion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRegions(t *testing.T) {
	got, err := ParseRegions([]string{"us", "de"})
	require.NoError(t, err)
	assert.Equal(t, []Region{"US", "DE"}, got)

	_, err = ParseRegions([]string{"us", "germany"})
	require.ErrorIs(t, err, ErrInvalidRegion)
}
