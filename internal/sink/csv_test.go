package sink_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
	"github.com/baystatedata/covidetl/internal/sink"
)

func testTable() *etl.NormalizedTable {
	return &etl.NormalizedTable{
		Name: "covid19__by_city_ma",
		Columns: []etl.Column{
			{Name: "City_Town", Type: etl.TypeString},
			{Name: "Count", Type: etl.TypeInt},
			{Name: "Per_1M_pp", Type: etl.TypeNullableInt},
		},
		Rows: [][]etl.Value{
			{etl.String("Boston"), etl.Int(120), etl.NullableInt(174)},
			{etl.String("Fall River"), etl.Int(1), etl.NullInt()},
		},
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	data, err := sink.Render(testTable())
	require.NoError(t, err)

	want := "City_Town,Count,Per_1M_pp\n" +
		"Boston,120,174\n" +
		"Fall River,1,\n"
	assert.Equal(t, want, string(data))
}

func TestCSVWriterWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "processed", "covid19__by_city_ma.csv")

	w := sink.NewCSVWriter(zap.NewNop())
	require.NoError(t, w.Write(path, testTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Boston,120,174")
}

func TestWriteAlternatesSkipsMissingDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	present := filepath.Join(dir, "seed.csv")
	absent := filepath.Join(dir, "no-such-mount", "seed.csv")

	w := sink.NewCSVWriter(zap.NewNop())
	written := w.WriteAlternates([]string{absent, present, ""}, testTable())

	assert.Equal(t, []string{present}, written)
	_, err := os.Stat(present)
	require.NoError(t, err)
}
