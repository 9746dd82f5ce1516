package handlers

import (
	"net/http"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
)

// CohortView is one aggregated cohort with its derived tier.
type CohortView struct {
	adherence.CohortMetrics
	Tier      adherence.Tier `json:"tier"`
	TierLabel string         `json:"tier_label"`
}

func cohortView(m adherence.CohortMetrics) CohortView {
	tier := m.Tier(adherence.DefaultPolicy)
	return CohortView{CohortMetrics: m, Tier: tier, TierLabel: tier.Label()}
}

// CohortsResponse is returned by GetCohorts.
type CohortsResponse struct {
	ClientID string       `json:"client_id"`
	GroupBy  string       `json:"group_by"`
	Cohorts  []CohortView `json:"cohorts"`
}

// GetCohorts returns cohort averages for a client.
// GET /api/v1/adherence/cohorts?client_id=&group_by=drug_class|member|month
func (h *Handlers) GetCohorts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}
	by, err := adherence.CohortKeyByName(r.URL.Query().Get("group_by"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	facts, err := h.db.QueryAdherenceFacts(r.Context(), clientID, adherence.FactFilter{})
	if handleError(w, err, "query adherence facts", "client_id", clientID) {
		return
	}
	// The monthly trend keeps history; every other view uses current values.
	if by.Name != adherence.ByMonth.Name {
		facts = adherence.Latest(facts)
	}

	cohorts, err := adherence.Aggregate(clientID, facts, by)
	if handleError(w, err, "aggregate cohorts", "client_id", clientID) {
		return
	}

	views := make([]CohortView, 0, len(cohorts))
	for _, c := range cohorts {
		views = append(views, cohortView(c))
	}
	writeJSON(w, http.StatusOK, CohortsResponse{ClientID: clientID, GroupBy: by.Name, Cohorts: views})
}

// OverviewResponse is the executive overview for one client.
type OverviewResponse struct {
	ClientID   string               `json:"client_id"`
	Overall    CohortView           `json:"overall"`
	TierCounts adherence.TierCounts `json:"tier_counts"`
	// BelowOptimal counts records in the AtRisk or Critical tiers.
	BelowOptimal int              `json:"below_optimal"`
	Policy       adherence.Policy `json:"policy"`
}

// GetOverview returns client-wide averages and tier counts.
// GET /api/v1/adherence/overview?client_id=
func (h *Handlers) GetOverview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}

	facts, err := h.db.QueryAdherenceFacts(r.Context(), clientID, adherence.FactFilter{})
	if handleError(w, err, "query adherence facts", "client_id", clientID) {
		return
	}
	latest := adherence.Latest(facts)

	overall, err := adherence.Overall(clientID, latest)
	if handleError(w, err, "aggregate overview", "client_id", clientID) {
		return
	}
	counts := adherence.DefaultPolicy.CountTiers(latest)

	writeJSON(w, http.StatusOK, OverviewResponse{
		ClientID:     clientID,
		Overall:      cohortView(overall),
		TierCounts:   counts,
		BelowOptimal: counts.BelowOptimal(),
		Policy:       adherence.DefaultPolicy,
	})
}

// DistributionResponse is the PDC-90 histogram for one client.
type DistributionResponse struct {
	ClientID  string                  `json:"client_id"`
	DrugClass string                  `json:"drug_class,omitempty"`
	Buckets   []adherence.BucketCount `json:"buckets"`
	Missing   int                     `json:"missing"`
	Total     int                     `json:"total"`
}

// GetDistribution buckets the latest PDC-90 values.
// GET /api/v1/adherence/distribution?client_id=&drug_class=
func (h *Handlers) GetDistribution(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}
	drugClass := r.URL.Query().Get("drug_class")

	facts, err := h.db.QueryAdherenceFacts(r.Context(), clientID, adherence.FactFilter{DrugClass: drugClass})
	if handleError(w, err, "query adherence facts", "client_id", clientID) {
		return
	}

	d := adherence.DistributionFromFacts(adherence.Latest(facts))
	writeJSON(w, http.StatusOK, DistributionResponse{
		ClientID:  clientID,
		DrugClass: drugClass,
		Buckets:   d.Ordered(),
		Missing:   d.Missing,
		Total:     d.Total(),
	})
}

// MemberView joins a member row with its current averages.
type MemberView struct {
	adherence.Member
	Metrics *CohortView `json:"metrics"`
}

// ListMembers returns members with their member-level averages and tier.
// Members without facts carry null metrics.
// GET /api/v1/adherence/members?client_id=
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	clientID, ok := requireQueryParam(w, r, "client_id")
	if !ok {
		return
	}

	ctx := r.Context()
	members, err := h.db.ListMembers(ctx, clientID)
	if handleError(w, err, "list members", "client_id", clientID) {
		return
	}
	facts, err := h.db.QueryAdherenceFacts(ctx, clientID, adherence.FactFilter{})
	if handleError(w, err, "query adherence facts", "client_id", clientID) {
		return
	}
	perMember, err := adherence.Aggregate(clientID, adherence.Latest(facts), adherence.ByMember)
	if handleError(w, err, "aggregate members", "client_id", clientID) {
		return
	}

	byID := make(map[string]CohortView, len(perMember))
	for _, m := range perMember {
		byID[m.Key] = cohortView(m)
	}

	out := make([]MemberView, 0, len(members))
	for _, m := range members {
		view := MemberView{Member: m}
		if cv, ok := byID[m.ID]; ok {
			view.Metrics = &cv
		}
		out = append(out, view)
	}
	writeJSON(w, http.StatusOK, out)
}
