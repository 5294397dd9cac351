package warehouse

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBigQueryError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		column string
	}{
		{
			name:   "conversion failure names the field",
			err:    fmt.Errorf("load job: Could not convert value to string. Field: Molecular_Total; Value: 8701"),
			column: "Molecular_Total",
		},
		{
			name:   "schema mismatch names the column",
			err:    fmt.Errorf("load job: Provided Schema does not match Table. Field Total_Tested has changed type"),
			column: "Total_Tested",
		},
		{
			name: "unrelated error stays non-retryable",
			err:  fmt.Errorf("load job: access denied to dataset covid"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyBigQueryError(tt.err)

			var mismatch *TypeMismatchError
			if tt.column == "" {
				assert.False(t, errors.As(got, &mismatch))
				return
			}
			require.ErrorAs(t, got, &mismatch)
			assert.Equal(t, tt.column, mismatch.Column)
		})
	}
}
