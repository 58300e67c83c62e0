package domain

import (
	"fmt"
	"strings"
)

// Platform identifies an advertising provider
type Platform string

const (
	PlatformAmazon  Platform = "amazon"
	PlatformWalmart Platform = "walmart"
)

// Platforms lists every supported provider in a stable order
var Platforms = []Platform{PlatformAmazon, PlatformWalmart}

// ParsePlatform accepts the provider token in any case ("AMAZON", "amazon")
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case PlatformAmazon:
		return PlatformAmazon, nil
	case PlatformWalmart:
		return PlatformWalmart, nil
	default:
		return "", fmt.Errorf("%w: platform must be AMAZON or WALMART, got %q", ErrValidation, s)
	}
}

func (p Platform) String() string {
	return string(p)
}

// Label is the upper-case token used in URLs and messages
func (p Platform) Label() string {
	return strings.ToUpper(string(p))
}

type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
	StatusDraft    Status = "draft"
)

type AdType string

const (
	AdTypeSponsoredProduct     AdType = "sponsored_product"
	AdTypeSponsoredBrand       AdType = "sponsored_brand"
	AdTypeSponsoredDisplay     AdType = "sponsored_display"
	AdTypeSearchBrandAmplifier AdType = "search_brand_amplifier"
)
