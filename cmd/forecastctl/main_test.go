package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/hyperlocal-weather-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockFor(t *testing.T) {
	clock, err := clockFor("2026-07-15T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC), clock.Now().UTC())

	_, err = clockFor("yesterday")
	require.Error(t, err)
}

func TestFixtures_WritesEverySite(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"fixtures", "--out", dir})
	t.Cleanup(func() {
		flags = globalFlags{}
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	for _, site := range fixtureSites {
		assert.FileExists(t, filepath.Join(dir, site.name+"_crop.json"))
		assert.FileExists(t, filepath.Join(dir, site.name+"_trends.json"))
		assert.FileExists(t, filepath.Join(dir, site.name+"_grid.json"))
		assert.Contains(t, out.String(), site.name)
	}

	data, err := os.ReadFile(filepath.Join(dir, "iowa-corn_crop.json"))
	require.NoError(t, err)
	var crop domain.CropForecast
	require.NoError(t, json.Unmarshal(data, &crop))
	assert.Len(t, crop.Hourly, domain.HorizonHours)
	assert.Equal(t, "iowa-corn", crop.Location.FieldID)
}
