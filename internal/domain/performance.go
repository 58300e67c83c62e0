package domain

import (
	"time"
)

// AdPerformance is derived per request and never stored
type AdPerformance struct {
	// Raw metrics
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`

	// Calculated metrics
	CTR            float64 `json:"ctr"`
	CPC            float64 `json:"cpc"`
	CPM            float64 `json:"cpm"`
	ROAS           float64 `json:"roas"`
	ConversionRate float64 `json:"conversionRate"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// NewAdPerformance derives the ratio metrics from raw counters. Every ratio is 0 when its denominator is 0.
func NewAdPerformance(impressions, clicks, conversions int64, spend, revenue float64, at time.Time) AdPerformance {
	p := AdPerformance{
		Impressions: impressions,
		Clicks:      clicks,
		Conversions: conversions,
		Spend:       spend,
		Revenue:     revenue,
		LastUpdated: at,
	}

	if impressions > 0 {
		p.CTR = float64(clicks) / float64(impressions) * 100
		p.CPM = spend / float64(impressions) * 1000
	}

	if clicks > 0 {
		p.CPC = spend / float64(clicks)
		p.ConversionRate = float64(conversions) / float64(clicks) * 100
	}

	if spend > 0 {
		p.ROAS = revenue / spend
	}

	return p
}

// DateRange is an inclusive calendar-date window forwarded to providers
type DateRange struct {
	Start time.Time
	End   time.Time
}

const DateLayout = "2006-01-02"

// Validate rejects reversed or empty ranges before anything is dispatched upstream
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return NewValidationError("startDate and endDate are required")
	}
	if r.End.Before(r.Start) {
		return NewValidationError("startDate %s is after endDate %s", r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

func (r DateRange) StartDate() string {
	return r.Start.Format(DateLayout)
}

func (r DateRange) EndDate() string {
	return r.End.Format(DateLayout)
}
