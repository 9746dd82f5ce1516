package adherence

import (
	"errors"
	"time"
)

// ErrCrossClient is returned when an aggregation input mixes facts from
// more than one client.
var ErrCrossClient = errors.New("facts span more than one client")

// Fact is a single adherence measurement for one member and drug class.
// Metric values are percentages; nil means the metric was not measured.
type Fact struct {
	ClientID  string    `json:"client_id"`
	MemberID  string    `json:"member_id"`
	DrugClass string    `json:"drug_class"`
	PDC90     *float64  `json:"pdc90"`
	PDC180    *float64  `json:"pdc180"`
	MPR90     *float64  `json:"mpr90"`
	AsOfDate  time.Time `json:"as_of_date"`
}

// Member is the member dimension row. Read-only to this package.
type Member struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	ZipCode  string `json:"zip_code"`
	RiskBand string `json:"risk_band"`
	PlanID   string `json:"plan_id"`
}

// Pct returns a pointer to v, for building facts in callers and tests.
func Pct(v float64) *float64 {
	return &v
}

type factKey struct {
	clientID, memberID, drugClass string
}

// Latest keeps only the newest fact per (client, member, drug class).
// Facts are never mutated in place; a later AsOfDate supersedes an earlier one.
// Input order is preserved for the surviving facts.
func Latest(facts []Fact) []Fact {
	newest := make(map[factKey]int, len(facts))
	for i, f := range facts {
		k := factKey{f.ClientID, f.MemberID, f.DrugClass}
		if j, ok := newest[k]; !ok || f.AsOfDate.After(facts[j].AsOfDate) {
			newest[k] = i
		}
	}

	out := make([]Fact, 0, len(newest))
	for i, f := range facts {
		if newest[factKey{f.ClientID, f.MemberID, f.DrugClass}] == i {
			out = append(out, f)
		}
	}
	return out
}

func checkSingleClient(clientID string, facts []Fact) error {
	for _, f := range facts {
		if f.ClientID != clientID {
			return ErrCrossClient
		}
	}
	return nil
}

// FactFilter narrows a fact-store query. Zero values mean no filter.
type FactFilter struct {
	DrugClass string
	MemberID  string
	Since     time.Time
}

// CareGap is an open or closed gap in a member's care for one drug class.
// Gaps are recorded by ingestion and are read-only to the core.
type CareGap struct {
	ID        string     `json:"gap_id"`
	ClientID  string     `json:"client_id"`
	MemberID  string     `json:"member_id"`
	DrugClass string     `json:"drug_class"`
	OpenedAt  time.Time  `json:"opened_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// OpenLongerThan reports whether the gap is still open at now and has been
// for more than age.
func (g CareGap) OpenLongerThan(age time.Duration, now time.Time) bool {
	return g.ClosedAt == nil && now.Sub(g.OpenedAt) > age
}
