package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAdPerformance_ZeroDenominators(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		impressions int64
		clicks      int64
		conversions int64
		spend       float64
		revenue     float64
		check       func(t *testing.T, p AdPerformance)
	}{
		{
			name:    "no impressions",
			clicks:  0,
			spend:   12.5,
			revenue: 40,
			check: func(t *testing.T, p AdPerformance) {
				assert.Zero(t, p.CTR)
				assert.Zero(t, p.CPM)
			},
		},
		{
			name:        "no clicks",
			impressions: 1000,
			conversions: 3,
			spend:       9,
			check: func(t *testing.T, p AdPerformance) {
				assert.Zero(t, p.CPC)
				assert.Zero(t, p.ConversionRate)
				assert.InDelta(t, 9.0, p.CPM, 1e-9)
			},
		},
		{
			name:        "no spend",
			impressions: 1000,
			clicks:      10,
			revenue:     250,
			check: func(t *testing.T, p AdPerformance) {
				assert.Zero(t, p.ROAS)
				assert.Zero(t, p.CPC)
				assert.InDelta(t, 1.0, p.CTR, 1e-9)
			},
		},
		{
			name: "everything zero",
			check: func(t *testing.T, p AdPerformance) {
				assert.Equal(t, AdPerformance{LastUpdated: at}, p)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewAdPerformance(tt.impressions, tt.clicks, tt.conversions, tt.spend, tt.revenue, at)
			tt.check(t, p)
		})
	}
}

func TestNewAdPerformance_AmazonSummaryFixture(t *testing.T) {
	p := NewAdPerformance(154703, 1122, 37, 1398.77, 5758.19, time.Now())

	assert.InDelta(t, 0.725, p.CTR, 0.001)
	assert.InDelta(t, 1.247, p.CPC, 0.001)
	assert.InDelta(t, 4.1166, p.ROAS, 0.001)
	assert.InDelta(t, 9.0416, p.CPM, 0.001)
	assert.InDelta(t, 3.2977, p.ConversionRate, 0.001)
}

func TestDateRange_Validate(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse(DateLayout, s)
		require.NoError(t, err)
		return d
	}

	assert.NoError(t, DateRange{Start: day("2026-02-01"), End: day("2026-03-01")}.Validate())
	assert.NoError(t, DateRange{Start: day("2026-02-01"), End: day("2026-02-01")}.Validate())

	err := DateRange{Start: day("2026-03-01"), End: day("2026-02-01")}.Validate()
	assert.ErrorIs(t, err, ErrValidation)

	err = DateRange{End: day("2026-02-01")}.Validate()
	assert.ErrorIs(t, err, ErrValidation)

	r := DateRange{Start: day("2026-02-01"), End: day("2026-03-01")}
	assert.Equal(t, "2026-02-01", r.StartDate())
	assert.Equal(t, "2026-03-01", r.EndDate())
}

func TestParsePlatform(t *testing.T) {
	for _, in := range []string{"AMAZON", "amazon", " Amazon "} {
		p, err := ParsePlatform(in)
		require.NoError(t, err, in)
		assert.Equal(t, PlatformAmazon, p)
	}

	p, err := ParsePlatform("WALMART")
	require.NoError(t, err)
	assert.Equal(t, PlatformWalmart, p)
	assert.Equal(t, "WALMART", p.Label())

	_, err = ParsePlatform("ebay")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpstreamError_MatchesSentinel(t *testing.T) {
	var err error = &UpstreamError{Platform: PlatformWalmart, StatusCode: 503, Message: "maintenance"}
	wrapped := errors.Join(errors.New("fetch campaigns"), err)

	assert.ErrorIs(t, wrapped, ErrUpstream)

	var upstream *UpstreamError
	require.ErrorAs(t, wrapped, &upstream)
	assert.Equal(t, 503, upstream.StatusCode)
	assert.Contains(t, err.Error(), "walmart API returned status 503")

	schema := NewSchemaError(PlatformAmazon, "campaign %d has no id", 2)
	assert.Equal(t, 502, schema.StatusCode)
	assert.ErrorIs(t, schema, ErrUpstream)
}
