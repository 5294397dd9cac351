package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/config"
	"github.com/baystatedata/covidetl/internal/pipeline"
)

func baseConfig(t *testing.T, url string) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Source.URL = url
	dir := t.TempDir()
	cfg.Paths.MountDir = dir
	cfg.Paths.DownloadDir = dir
	cfg.Paths.ProcessedDir = dir
	cfg.Paths.GitCityCSV = ""
	cfg.Paths.GitAgeCSV = ""
	return cfg
}

func TestRunFailsWhenLandingPageUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	srv.Close()

	p := pipeline.New(baseConfig(t, srv.URL), zap.NewNop())
	summary, err := p.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Failed())
	assert.NotEmpty(t, summary.RunID)
}

func TestRunFailsWhenLinksMissing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>maintenance page, no links</p></body></html>"))
	}))
	t.Cleanup(srv.Close)

	p := pipeline.New(baseConfig(t, srv.URL), zap.NewNop())
	summary, err := p.Run(context.Background())
	require.Error(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Failed())

	// The landing page itself fetched fine; the failure is the missing link.
	require.NotEmpty(t, summary.Steps)
	assert.Equal(t, pipeline.StepSucceeded, summary.Steps[0].Status)
	assert.Equal(t, pipeline.StepFailed, summary.Steps[len(summary.Steps)-1].Status)
}
