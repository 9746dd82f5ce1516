// Package adherence provides the pure metric logic applied to adherence facts:
// cohort aggregation, tier classification, and distribution bucketing.
package adherence

// Policy holds the PDC cutoffs shared by every reporting surface.
// Classification, distribution displays, and the rules engine all read
// thresholds from a Policy so the cutoffs can only drift in one place.
type Policy struct {
	HealthyMin float64 `json:"healthy_min" yaml:"healthy_min"`
	AtRiskMin  float64 `json:"at_risk_min" yaml:"at_risk_min"`
}

// DefaultPolicy is the fixed 80/75 policy. The 80% line is the CMS Star
// Ratings adherence threshold.
var DefaultPolicy = Policy{HealthyMin: 80, AtRiskMin: 75}
