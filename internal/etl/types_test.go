package etl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baystatedata/covidetl/internal/etl"
)

func TestRawTableHeaderBody(t *testing.T) {
	t.Parallel()

	var empty etl.RawTable
	assert.Nil(t, empty.Header())
	assert.Nil(t, empty.Body())

	table := etl.RawTable{{"a", "b"}, {"1", "2"}}
	assert.Equal(t, []string{"a", "b"}, table.Header())
	assert.Equal(t, [][]string{{"1", "2"}}, table.Body())

	headerOnly := etl.RawTable{{"a"}}
	assert.Nil(t, headerOnly.Body())
}

func TestValueCSV(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Boston", etl.String("Boston").CSV())
	assert.Equal(t, "120", etl.Int(120).CSV())
	assert.Equal(t, "174", etl.NullableInt(174).CSV())
	assert.Equal(t, "", etl.NullInt().CSV())
	assert.Equal(t, "17.4", etl.Float(17.4).CSV())
	assert.Equal(t, "", etl.NullFloat().CSV())
}

func TestCastColumnToString(t *testing.T) {
	t.Parallel()

	table := &etl.NormalizedTable{
		Columns: []etl.Column{
			{Name: "Count", Type: etl.TypeNullableInt},
		},
		Rows: [][]etl.Value{
			{etl.NullableInt(5)},
			{etl.NullInt()},
		},
	}

	assert.False(t, table.CastColumnToString("NoSuch"))

	assert.True(t, table.CastColumnToString("Count"))
	assert.Equal(t, etl.TypeString, table.Columns[0].Type)
	assert.Equal(t, etl.String("5"), table.Rows[0][0])
	assert.Equal(t, etl.String(""), table.Rows[1][0])
}
