package infrastructure

import (
	"errors"
	"fmt"
	"strings"

	"adsphere/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// AmazonCredentials configures one Amazon Advertising profile
type AmazonCredentials struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	RefreshToken string `validate:"required"`
	ProfileID    string `validate:"required"`
	Region       string `validate:"required,oneof=na eu fe"`
	// overrides for the regional API host and the token endpoint
	APIURL  string `validate:"omitempty,url"`
	AuthURL string `validate:"omitempty,url"`
}

// WalmartCredentials configures one Walmart Ads channel
type WalmartCredentials struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	ChannelID    string `validate:"required"`
	Environment  string `validate:"required,oneof=sandbox production"`
	APIURL       string `validate:"omitempty,url"`
	AuthURL      string `validate:"omitempty,url"`
}

func validateCredentials(platform domain.Platform, creds any) error {
	err := validate.Struct(creds)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewValidationError("invalid %s credentials: %v", platform.Label(), err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		problems = append(problems, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return domain.NewValidationError("invalid %s credentials: %s", platform.Label(), strings.Join(problems, ", "))
}
