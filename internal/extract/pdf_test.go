package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextFromContentStream(t *testing.T) {
	t.Parallel()

	stream := []byte(`BT
/F1 12 Tf
72 720 Td
(Confirmed Cases by Age) Tj
0 -14 Td
[(0-19 20-29 30\+) -250 (1,000 2,000 3,000)] TJ
T*
(Average age of 45) '
ET`)

	got := textFromContentStream(stream)
	assert.Contains(t, got, "Confirmed Cases by Age")
	assert.Contains(t, got, "0-19 20-29 30+")
	assert.Contains(t, got, "1,000 2,000 3,000")
	assert.Contains(t, got, "Average age of 45")
}

func TestDecodePDFString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Cases", "Cases"},
		{"escaped parens", `\(cases\)`, "(cases)"},
		{"octal space", `a\040b`, "a b"},
		{"short octal", `a\40b`, "a b"},
		{"newline escape", `a\nb`, "a\nb"},
		{"unknown escape passes through", `a\qb`, "aqb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, decodePDFString([]byte(tt.input)))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b c", normalizeText("  a \n\n b\tc "))
	assert.Equal(t, "", normalizeText("   "))
}
