package application

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	billing "greenhouse-cloud/internal/billing/domain"
)

// BillingTerms holds the contractual constants of the savings program.
type BillingTerms struct {
	GuaranteeThreshold    float64 `yaml:"guarantee_threshold"`
	ProviderShareRate     float64 `yaml:"provider_share_rate"`
	PaymentTermDays       int     `yaml:"payment_term_days"`
	DegreeDayBase         float64 `yaml:"degree_day_base"`
	DefaultSensitivity    float64 `yaml:"default_sensitivity"`
	VerificationTolerance float64 `yaml:"verification_tolerance"`
	Currency              string  `yaml:"currency"`
}

// DefaultBillingTerms returns the contractual defaults: 15% performance
// guarantee, 30/70 benefit split, net-15 payment terms.
func DefaultBillingTerms() BillingTerms {
	return BillingTerms{
		GuaranteeThreshold:    0.15,
		ProviderShareRate:     0.30,
		PaymentTermDays:       15,
		DegreeDayBase:         billing.DefaultDegreeDayBase,
		DefaultSensitivity:    billing.DefaultWeatherSensitivity,
		VerificationTolerance: 0.02,
		Currency:              getenvDefault("CURRENCY", "USD"),
	}
}

// LoadBillingTerms loads terms from the yaml file named by BILLING_TERMS
// falling back to defaults, then validates the result.
func LoadBillingTerms() (BillingTerms, error) {
	terms := DefaultBillingTerms()

	if path := os.Getenv("BILLING_TERMS"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return terms, err
		}
		if err := yaml.Unmarshal(data, &terms); err != nil {
			return terms, err
		}
	}
	if value := os.Getenv("GUARANTEE_THRESHOLD"); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			terms.GuaranteeThreshold = parsed
		}
	}
	if value := os.Getenv("PROVIDER_SHARE_RATE"); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			terms.ProviderShareRate = parsed
		}
	}

	return terms, terms.Validate()
}

// Validate checks terms invariants.
func (t BillingTerms) Validate() error {
	if t.GuaranteeThreshold < 0 || t.GuaranteeThreshold > 1 {
		return errors.New("billing terms: guarantee threshold must be within [0,1]")
	}
	if t.ProviderShareRate < 0 || t.ProviderShareRate > 1 {
		return errors.New("billing terms: provider share rate must be within [0,1]")
	}
	if t.PaymentTermDays <= 0 {
		return errors.New("billing terms: payment term days must be positive")
	}
	if t.VerificationTolerance < 0 {
		return errors.New("billing terms: negative verification tolerance")
	}
	if t.Currency == "" {
		return errors.New("billing terms: currency required")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
