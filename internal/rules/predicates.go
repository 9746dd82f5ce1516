package rules

import (
	"fmt"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
)

// Snapshot is the read-only state a rule pass evaluates against.
type Snapshot struct {
	ClientID string
	Now      time.Time
	Policy   adherence.Policy
	// Cohorts holds drug-class averages over each member's latest facts.
	Cohorts  []adherence.CohortMetrics
	OpenGaps []adherence.CareGap
}

// Match is one predicate hit. EntityRef names the cohort, member set or
// window the notification concerns; Data feeds the message template.
type Match struct {
	EntityRef string
	Data      map[string]any
}

// Predicate reports the entities a rule fires for.
type Predicate func(r *Rule, s *Snapshot) []Match

var predicates = map[string]Predicate{
	"adherence_risk_spike":     cohortBelowAtRisk,
	"adherence_watchlist":      cohortAtRisk,
	"gap_closure_backlog":      gapClosureBacklog,
	"pdc180_sustained_decline": sustainedDecline,
}

func cohortRef(c adherence.CohortMetrics) string {
	return c.Key + " cohort"
}

func cohortData(c adherence.CohortMetrics, threshold float64) map[string]any {
	return map[string]any{
		"Cohort":    c.Key,
		"Value":     *c.AvgPDC90,
		"Threshold": threshold,
		"Count":     c.Count,
	}
}

// cohortBelowAtRisk fires for each drug-class cohort whose average PDC-90
// is in the Critical tier.
func cohortBelowAtRisk(_ *Rule, s *Snapshot) []Match {
	var out []Match
	for _, c := range s.Cohorts {
		if s.Policy.Classify(c.AvgPDC90) != adherence.TierCritical {
			continue
		}
		out = append(out, Match{EntityRef: cohortRef(c), Data: cohortData(c, s.Policy.AtRiskMin)})
	}
	return out
}

// cohortAtRisk fires for each cohort in the AtRisk tier.
func cohortAtRisk(_ *Rule, s *Snapshot) []Match {
	var out []Match
	for _, c := range s.Cohorts {
		if s.Policy.Classify(c.AvgPDC90) != adherence.TierAtRisk {
			continue
		}
		out = append(out, Match{EntityRef: cohortRef(c), Data: cohortData(c, s.Policy.HealthyMin)})
	}
	return out
}

// sustainedDecline fires when both the 90- and 180-day averages are Critical.
func sustainedDecline(_ *Rule, s *Snapshot) []Match {
	var out []Match
	for _, c := range s.Cohorts {
		if s.Policy.Classify(c.AvgPDC90) != adherence.TierCritical ||
			s.Policy.Classify(c.AvgPDC180) != adherence.TierCritical {
			continue
		}
		data := cohortData(c, s.Policy.AtRiskMin)
		data["Value180"] = *c.AvgPDC180
		out = append(out, Match{EntityRef: cohortRef(c), Data: data})
	}
	return out
}

// gapClosureBacklog fires once per client when enough gaps have been open
// longer than min_age_days.
func gapClosureBacklog(r *Rule, s *Snapshot) []Match {
	ageDays := int(r.Param("min_age_days", 30))
	minCount := int(r.Param("min_count", 10))
	age := time.Duration(ageDays) * 24 * time.Hour

	count := 0
	for _, g := range s.OpenGaps {
		if g.OpenLongerThan(age, s.Now) {
			count++
		}
	}
	if count == 0 || count < minCount {
		return nil
	}
	return []Match{{
		EntityRef: fmt.Sprintf("Open gaps >%d days", ageDays),
		Data: map[string]any{
			"Count":   count,
			"AgeDays": ageDays,
		},
	}}
}
