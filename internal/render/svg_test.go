package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSVGDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 15, 0, 0, time.UTC)
	canvas := Canvas{WidthMM: DefaultWidthMM, HeightMM: DefaultHeightMM, Kind: "sample"}

	a := SVG(SampleMetrics(now), canvas)
	b := SVG(SampleMetrics(now), canvas)
	assert.Equal(t, a, b)

	other := SVG(PreviewMetrics("preview:other", now), canvas)
	assert.NotEqual(t, a, other)
}

func TestSVGShape(t *testing.T) {
	out := string(SVG(PreviewMetrics("seed-1", time.Unix(0, 0)), Canvas{WidthMM: 210, HeightMM: 297, Kind: "preview"}))

	require.True(t, strings.HasPrefix(out, `<?xml version="1.0"`))
	assert.Contains(t, out, `width="210mm" height="297mm"`)
	assert.Equal(t, 120, strings.Count(out, "<line "))
	assert.Contains(t, out, "kind: preview")
	assert.Contains(t, out, "note: mock preview")
}

func TestSampleMetricsStableWithinHour(t *testing.T) {
	first := SampleMetrics(time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC))
	second := SampleMetrics(time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC))
	next := SampleMetrics(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))

	assert.Equal(t, first.Seed, second.Seed)
	assert.Equal(t, *first.SleepScore, *second.SleepScore)
	assert.Equal(t, "sample:2026-03-01T09", first.Seed)
	assert.NotEqual(t, first.Seed, next.Seed)

	assert.GreaterOrEqual(t, *first.SleepScore, 60)
	assert.Less(t, *first.SleepScore, 100)
	assert.GreaterOrEqual(t, *first.RestingHR, 45)
	assert.Less(t, *first.Steps, 12000)
}

func TestHourKeyUsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	assert.Equal(t, "2026-03-01T00", HourKey(time.Date(2026, 3, 1, 9, 30, 0, 0, tokyo)))
}
