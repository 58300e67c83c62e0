package domain

import "time"

// Campaign is the provider-agnostic campaign snapshot. Re-fetching produces a new value.
type Campaign struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Platform    Platform        `json:"platform"`
	Status      Status          `json:"status"`
	Budget      float64         `json:"budget"`
	DailyBudget *float64        `json:"dailyBudget,omitempty"`
	StartDate   time.Time       `json:"startDate"`
	EndDate     *time.Time      `json:"endDate,omitempty"`
	Metrics     CampaignMetrics `json:"metrics"`
	UserID      string          `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CampaignMetrics is the metrics block carried on a campaign listing
type CampaignMetrics struct {
	Impressions int64    `json:"impressions"`
	Clicks      int64    `json:"clicks"`
	Spend       float64  `json:"spend"`
	Sales       *float64 `json:"sales,omitempty"`
	Orders      *int64   `json:"orders,omitempty"`
	Conversions *int64   `json:"conversions,omitempty"`
	ACOS        *float64 `json:"acos,omitempty"`
	ROAS        *float64 `json:"roas,omitempty"`
}

// CampaignDraft holds the fields a new campaign is created from.
// A zero StartDate means the campaign starts today.
type CampaignDraft struct {
	Name        string
	Budget      float64
	DailyBudget *float64
	StartDate   time.Time
	EndDate     *time.Time
	UserID      string
}

// EffectiveDailyBudget is the daily budget when set, else the total budget
func (d CampaignDraft) EffectiveDailyBudget() float64 {
	if d.DailyBudget != nil && *d.DailyBudget > 0 {
		return *d.DailyBudget
	}
	return d.Budget
}

func (d CampaignDraft) Validate() error {
	if d.Name == "" {
		return NewValidationError("campaign name is required")
	}
	if d.Budget < 0 || (d.DailyBudget != nil && *d.DailyBudget <= 0) {
		return NewValidationError("budgets must be positive")
	}
	if d.EffectiveDailyBudget() <= 0 {
		return NewValidationError("budget or dailyBudget is required")
	}
	if d.EndDate != nil && !d.StartDate.IsZero() && d.EndDate.Before(d.StartDate) {
		return NewValidationError("endDate %s is before startDate %s", d.EndDate.Format(DateLayout), d.StartDate.Format(DateLayout))
	}
	return nil
}

// CampaignUpdate lists the editable campaign fields; nil fields are left unchanged
type CampaignUpdate struct {
	Name        *string
	DailyBudget *float64
	Status      *Status
	EndDate     *time.Time
}

func (u CampaignUpdate) Validate() error {
	if u.Name == nil && u.DailyBudget == nil && u.Status == nil && u.EndDate == nil {
		return NewValidationError("at least one of name, dailyBudget, status or endDate is required")
	}
	if u.Name != nil && *u.Name == "" {
		return NewValidationError("campaign name must not be empty")
	}
	if u.DailyBudget != nil && *u.DailyBudget <= 0 {
		return NewValidationError("dailyBudget must be positive, got %v", *u.DailyBudget)
	}
	if u.Status != nil {
		switch *u.Status {
		case StatusActive, StatusPaused, StatusArchived:
		default:
			return NewValidationError("status must be active, paused or archived, got %q", *u.Status)
		}
	}
	return nil
}
