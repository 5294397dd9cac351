package agereport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/agereport"
	"github.com/baystatedata/covidetl/internal/etl"
)

const dashboardText = "Weekly COVID-19 Report " +
	"Confirmed Cases by Age 0-19 20-29 30+ 1,000 2,000 3,000 " +
	"Rate per 100,000 10 20 30 " +
	"Average age of 45"

func TestParserParse(t *testing.T) {
	t.Parallel()

	p := agereport.NewParser(zap.NewNop())
	table, err := p.Parse(dashboardText)
	require.NoError(t, err)

	assert.Equal(t, "AgeDistribution", table.Name)
	require.Len(t, table.Columns, 3)
	assert.Equal(t, agereport.ColAgeGroup, table.Columns[0].Name)
	assert.Equal(t, agereport.ColCases, table.Columns[1].Name)
	assert.Equal(t, agereport.ColPerMill, table.Columns[2].Name)

	want := [][]etl.Value{
		{etl.String("0-19"), etl.NullableInt(1000), etl.NullableInt(100)},
		{etl.String("20-29"), etl.NullableInt(2000), etl.NullableInt(200)},
		{etl.String("30+"), etl.NullableInt(3000), etl.NullableInt(300)},
	}
	assert.Equal(t, want, table.Rows)
}

func TestParserParseMissingSection(t *testing.T) {
	t.Parallel()

	p := agereport.NewParser(zap.NewNop())

	_, err := p.Parse("a dashboard without the age tables at all")
	require.ErrorIs(t, err, etl.ErrSectionNotFound)

	_, err = p.Parse("Confirmed Cases by Age 0-19 20+ 1,000 2,000 but no closing anchor")
	require.ErrorIs(t, err, etl.ErrSectionNotFound)
}

func TestParserParseShortSeriesEmitsMissing(t *testing.T) {
	t.Parallel()

	text := "Confirmed Cases by Age 0-19 20-29 30+ 1,000 2,000 " +
		"Rate per 100,000 10 " +
		"Average age of 45"

	p := agereport.NewParser(zap.NewNop())
	table, err := p.Parse(text)
	require.NoError(t, err)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, etl.NullableInt(2000), table.Rows[1][1])
	assert.Equal(t, etl.NullInt(), table.Rows[2][1])
	assert.Equal(t, etl.NullableInt(100), table.Rows[0][2])
	assert.Equal(t, etl.NullInt(), table.Rows[1][2])
	assert.Equal(t, etl.NullInt(), table.Rows[2][2])
}
