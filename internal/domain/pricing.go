package domain

import "fmt"

// PricingMode selects how daily prices are produced.
type PricingMode string

const (
	PricingModeReal      PricingMode = "real"
	PricingModeSynthetic PricingMode = "synthetic"
)

// String returns the string representation of PricingMode.
func (m PricingMode) String() string {
	return string(m)
}

// IsValid checks if the mode is a known value.
func (m PricingMode) IsValid() bool {
	return m == PricingModeReal || m == PricingModeSynthetic
}

// Source returns the price source recorded for snapshots produced in this mode.
func (m PricingMode) Source() PriceSource {
	switch m {
	case PricingModeReal:
		return PriceSourceReal
	case PricingModeSynthetic:
		return PriceSourceSynthetic
	default:
		return ""
	}
}

// ParsePricingMode converts a string into a PricingMode.
func ParsePricingMode(s string) (PricingMode, error) {
	m := PricingMode(s)
	if !m.IsValid() {
		return "", &ConfigurationError{Field: "pricing_mode", Reason: "unknown pricing mode " + s}
	}
	return m, nil
}

// PriceSource records where a snapshot price came from.
type PriceSource string

const (
	PriceSourceReal      PriceSource = "real"
	PriceSourceSynthetic PriceSource = "synthetic"
)

// String returns the string representation of PriceSource.
func (s PriceSource) String() string {
	return string(s)
}

// IsValid checks if the source is a known value.
func (s PriceSource) IsValid() bool {
	return s == PriceSourceReal || s == PriceSourceSynthetic
}

// Adjustment reasons written to price_change_reason.
const (
	ReasonBasePrice      = "base_price"
	ReasonEventDiscount  = "event_discount"
	ReasonPreEventUplift = "pre_event_uplift"
	NoiseSuffix          = "+noise"
)

// ParsePriceSource converts a stored string into a PriceSource.
func ParsePriceSource(s string) (PriceSource, error) {
	src := PriceSource(s)
	if !src.IsValid() {
		return "", fmt.Errorf("unknown price source %q", s)
	}
	return src, nil
}
