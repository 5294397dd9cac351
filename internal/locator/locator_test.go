package locator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
	"github.com/baystatedata/covidetl/internal/locator"
)

const landingPage = `<!DOCTYPE html>
<html><body>
<h1>COVID-19 cases, quarantine and monitoring</h1>
<ul>
<li><a href="/doc/covid-19-cases-in-massachusetts-may-12-2020/download">COVID-19 Cases in Massachusetts Doc</a></li>
<li><a href="/doc/covid-19-dashboard-may-12-2020/download">COVID-19 Dashboard - May 12, 2020</a></li>
<li><a href="/doc/covid-19-raw-data-may-12-2020/download">COVID-19 Raw Data - May 12, 2020</a></li>
<li><a href="/doc/weekly-public-health-report-raw-data-may-6-2020/download">Weekly Public Health Report Raw Data - May 6, 2020</a></li>
<li><a href="">Broken link with empty href</a></li>
</ul>
</body></html>`

func newLocator(t *testing.T) *locator.Locator {
	t.Helper()
	loc, err := locator.New([]byte(landingPage), "https://www.mass.gov/info-details/covid-19-cases", zap.NewNop())
	require.NoError(t, err)
	return loc
}

func TestFindLink(t *testing.T) {
	t.Parallel()

	loc := newLocator(t)

	tests := []struct {
		pattern string
		want    string
	}{
		{locator.PatternCityDoc, "https://www.mass.gov/doc/covid-19-cases-in-massachusetts-may-12-2020/download"},
		{locator.PatternDashboard, "https://www.mass.gov/doc/covid-19-dashboard-may-12-2020/download"},
		{locator.PatternRawData, "https://www.mass.gov/doc/covid-19-raw-data-may-12-2020/download"},
		{locator.PatternWeeklyData, "https://www.mass.gov/doc/weekly-public-health-report-raw-data-may-6-2020/download"},
	}
	for _, tt := range tests {
		got, err := loc.FindLink(tt.pattern)
		require.NoError(t, err, tt.pattern)
		assert.Equal(t, tt.want, got)
	}
}

func TestFindLinkNotFound(t *testing.T) {
	t.Parallel()

	loc := newLocator(t)
	_, err := loc.FindLink(`Vaccination Report`)
	require.ErrorIs(t, err, etl.ErrLinkNotFound)
}

func TestFindLinkSkipsEmptyHref(t *testing.T) {
	t.Parallel()

	loc := newLocator(t)
	_, err := loc.FindLink(`Broken link`)
	require.ErrorIs(t, err, etl.ErrLinkNotFound)
}

func TestDeriveFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{
			// The stem is the last three dash-separated segments before the
			// trailing one, the site's date-bearing naming convention.
			url:  "https://www.mass.gov/doc/covid-19-dashboard-may-12-2020/download",
			want: "dashboard_may_12",
		},
		{
			url:  "https://www.mass.gov/doc/covid-19-cases-in-massachusetts-may-12-2020/download",
			want: "massachusetts_may_12",
		},
		{
			url:  "plain-name/download",
			want: "plain_name",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, locator.DeriveFilename(tt.url))
	}
}

func TestClassifyDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2020, time.May, 12, 10, 0, 0, 0, time.UTC)

	day, year, recency, err := locator.ClassifyDate("covid-19-dashboard-may-12-2020", now)
	require.NoError(t, err)
	assert.Equal(t, 12, day)
	assert.Equal(t, 2020, year)
	assert.Equal(t, locator.RecencyToday, recency)

	_, _, recency, err = locator.ClassifyDate("covid-19-dashboard-may-11-2020", now)
	require.NoError(t, err)
	assert.Equal(t, locator.RecencyYesterday, recency)

	_, _, recency, err = locator.ClassifyDate("covid-19-dashboard-5-1-2020", now)
	require.NoError(t, err)
	assert.Equal(t, locator.RecencyOlder, recency)

	_, _, _, err = locator.ClassifyDate("no date here", now)
	require.Error(t, err)
}

func TestDateStamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2020, time.May, 12, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, now, locator.DateStamp(locator.RecencyToday, now))
	assert.Equal(t, now.AddDate(0, 0, -1), locator.DateStamp(locator.RecencyYesterday, now))
	assert.Equal(t, now, locator.DateStamp(locator.RecencyOlder, now))
}
