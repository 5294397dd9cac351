package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baystatedata/covidetl/internal/normalize"
)

func TestSanitizeColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "leading digit and parens",
			input: "2020(cases)",
			want:  "_2020cases",
		},
		{
			name:  "hundred thousand shorthand",
			input: "Rate per 100000 people",
			want:  "Rate_per_100k_people",
		},
		{
			name:  "million scale is left alone",
			input: "Rate per 1000000 people",
			want:  "Rate_per_1000000_people",
		},
		{
			name:  "slash and hyphen",
			input: "Cases/Deaths-Total",
			want:  "Cases_Deaths_Total",
		},
		{
			name:  "asterisk period equals stripped",
			input: "Rate*=approx.",
			want:  "Rateapprox",
		},
		{
			name:  "already clean",
			input: "County_Weekly",
			want:  "County_Weekly",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, normalize.SanitizeColumn(tt.input))
		})
	}
}

func TestCorrectTown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "East Bridgewater", normalize.CorrectTown("EastBridgewater"))
	assert.Equal(t, "West Springfield", normalize.CorrectTown("WestSpringfield"))
	assert.Equal(t, "Boston", normalize.CorrectTown("Boston"))
	assert.Equal(t, "East Bridgewater", normalize.CorrectTown("East Bridgewater"))
}
