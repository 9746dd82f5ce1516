package adherence

// Tier is the derived adherence status for a metric value. Tiers are never
// stored; they are recomputed from the latest value on every read.
type Tier string

const (
	TierHealthy  Tier = "HEALTHY"
	TierAtRisk   Tier = "AT_RISK"
	TierCritical Tier = "CRITICAL"
	TierUnknown  Tier = "UNKNOWN"
)

// Label returns the display label for a tier.
func (t Tier) Label() string {
	switch t {
	case TierHealthy:
		return "Healthy"
	case TierAtRisk:
		return "At Risk"
	case TierCritical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Classify maps a PDC percentage to a tier using DefaultPolicy.
func Classify(pdc *float64) Tier {
	return DefaultPolicy.Classify(pdc)
}

// Classify maps a PDC percentage to a tier. Each tier is closed on its
// lower bound: HealthyMin is Healthy and AtRiskMin is AtRisk.
func (p Policy) Classify(pdc *float64) Tier {
	if pdc == nil {
		return TierUnknown
	}
	switch v := *pdc; {
	case v >= p.HealthyMin:
		return TierHealthy
	case v >= p.AtRiskMin:
		return TierAtRisk
	default:
		return TierCritical
	}
}

// TierCounts counts facts by the tier of their PDC-90 value.
type TierCounts struct {
	Healthy  int `json:"healthy"`
	AtRisk   int `json:"at_risk"`
	Critical int `json:"critical"`
	Unknown  int `json:"unknown"`
}

// CountTiers classifies each fact's PDC-90 and tallies the result.
func (p Policy) CountTiers(facts []Fact) TierCounts {
	var c TierCounts
	for _, f := range facts {
		switch p.Classify(f.PDC90) {
		case TierHealthy:
			c.Healthy++
		case TierAtRisk:
			c.AtRisk++
		case TierCritical:
			c.Critical++
		default:
			c.Unknown++
		}
	}
	return c
}

// BelowOptimal is the number of records needing intervention.
func (c TierCounts) BelowOptimal() int {
	return c.AtRisk + c.Critical
}
