package adherence

import (
	"fmt"
	"sort"
)

// CohortKey extracts the grouping key from a fact.
type CohortKey struct {
	Name string
	Key  func(Fact) string
}

var (
	// ByDrugClass groups facts by drug class. This is the default cohort.
	ByDrugClass = CohortKey{Name: "drug_class", Key: func(f Fact) string { return f.DrugClass }}
	// ByMember groups facts by member for member-level averages.
	ByMember = CohortKey{Name: "member", Key: func(f Fact) string { return f.MemberID }}
	// ByMonth groups facts by the calendar month of their as-of date.
	ByMonth = CohortKey{Name: "month", Key: func(f Fact) string { return f.AsOfDate.UTC().Format("2006-01") }}
)

// CohortKeyByName resolves a cohort key from its name. An empty name
// selects ByDrugClass.
func CohortKeyByName(name string) (CohortKey, error) {
	switch name {
	case "", ByDrugClass.Name:
		return ByDrugClass, nil
	case ByMember.Name:
		return ByMember, nil
	case ByMonth.Name:
		return ByMonth, nil
	default:
		return CohortKey{}, fmt.Errorf("unknown cohort key %q (want drug_class, member or month)", name)
	}
}

// CohortMetrics is the aggregate for one cohort. A nil average means no
// present values were seen, which is distinct from a true 0% average.
type CohortMetrics struct {
	Key       string   `json:"key"`
	Count     int      `json:"count"`
	AvgPDC90  *float64 `json:"avg_pdc90"`
	AvgPDC180 *float64 `json:"avg_pdc180"`
	AvgMPR90  *float64 `json:"avg_mpr90"`
}

// Tier classifies the cohort's average PDC-90.
func (m CohortMetrics) Tier(p Policy) Tier {
	return p.Classify(m.AvgPDC90)
}

// mean accumulates a simple arithmetic mean over present values.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

type accumulator struct {
	count                int
	pdc90, pdc180, mpr90 mean
}

func (a *accumulator) add(f Fact) {
	a.count++
	a.pdc90.add(f.PDC90)
	a.pdc180.add(f.PDC180)
	a.mpr90.add(f.MPR90)
}

func (a *accumulator) metrics(key string) CohortMetrics {
	return CohortMetrics{
		Key:       key,
		Count:     a.count,
		AvgPDC90:  a.pdc90.value(),
		AvgPDC180: a.pdc180.value(),
		AvgMPR90:  a.mpr90.value(),
	}
}

// Aggregate groups one client's facts by cohort key and averages each metric.
// The result holds at most one record per distinct key, sorted by key.
// Facts belonging to another client cause ErrCrossClient.
func Aggregate(clientID string, facts []Fact, by CohortKey) ([]CohortMetrics, error) {
	if err := checkSingleClient(clientID, facts); err != nil {
		return nil, err
	}
	if by.Key == nil {
		by = ByDrugClass
	}

	groups := make(map[string]*accumulator)
	for _, f := range facts {
		k := by.Key(f)
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
		}
		acc.add(f)
	}

	out := make([]CohortMetrics, 0, len(groups))
	for k, acc := range groups {
		out = append(out, acc.metrics(k))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Overall computes a single client-wide aggregate. An empty input yields
// Count 0 with every average reported as no data.
func Overall(clientID string, facts []Fact) (CohortMetrics, error) {
	if err := checkSingleClient(clientID, facts); err != nil {
		return CohortMetrics{}, err
	}
	var acc accumulator
	for _, f := range facts {
		acc.add(f)
	}
	return acc.metrics(clientID), nil
}
