package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/afikmenashe/adherence-platform/internal/adherence"
)

// QueryAdherenceFacts returns the facts for clientID matching filter, oldest
// first. Superseded facts are included; callers reduce with adherence.Latest.
func (db *DB) QueryAdherenceFacts(ctx context.Context, clientID string, filter adherence.FactFilter) ([]adherence.Fact, error) {
	conds := []string{"client_id = $1"}
	args := []any{clientID}
	if filter.DrugClass != "" {
		args = append(args, filter.DrugClass)
		conds = append(conds, fmt.Sprintf("drug_class = $%d", len(args)))
	}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		conds = append(conds, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, fmt.Sprintf("as_of_date >= $%d", len(args)))
	}

	query := `
		SELECT client_id, member_id, drug_class, pdc90, pdc180, mpr90, as_of_date
		FROM adherence_facts
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY as_of_date, member_id, drug_class
	`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query adherence facts: %w", err)
	}
	defer rows.Close()

	facts := []adherence.Fact{}
	for rows.Next() {
		var f adherence.Fact
		var pdc90, pdc180, mpr90 sql.NullFloat64
		if err := rows.Scan(&f.ClientID, &f.MemberID, &f.DrugClass, &pdc90, &pdc180, &mpr90, &f.AsOfDate); err != nil {
			return nil, fmt.Errorf("failed to scan adherence fact: %w", err)
		}
		f.PDC90, f.PDC180, f.MPR90 = nullFloat(pdc90), nullFloat(pdc180), nullFloat(mpr90)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// QueryOpenCareGaps returns the care gaps for clientID that are not closed.
func (db *DB) QueryOpenCareGaps(ctx context.Context, clientID string) ([]adherence.CareGap, error) {
	query := `
		SELECT gap_id, client_id, member_id, drug_class, opened_at
		FROM care_gaps
		WHERE client_id = $1 AND closed_at IS NULL
		ORDER BY opened_at
	`
	rows, err := db.conn.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query care gaps: %w", err)
	}
	defer rows.Close()

	var gaps []adherence.CareGap
	for rows.Next() {
		var g adherence.CareGap
		if err := rows.Scan(&g.ID, &g.ClientID, &g.MemberID, &g.DrugClass, &g.OpenedAt); err != nil {
			return nil, fmt.Errorf("failed to scan care gap: %w", err)
		}
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}

// ListClientIDs returns every tenant id.
func (db *DB) ListClientIDs(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT client_id FROM clients ORDER BY client_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListMembers returns the member dimension rows for clientID.
func (db *DB) ListMembers(ctx context.Context, clientID string) ([]adherence.Member, error) {
	query := `
		SELECT member_id, client_id, name, age, gender, zip_code, risk_band, plan_id
		FROM members
		WHERE client_id = $1
		ORDER BY member_id
	`
	rows, err := db.conn.QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []adherence.Member{}
	for rows.Next() {
		var m adherence.Member
		if err := rows.Scan(&m.ID, &m.ClientID, &m.Name, &m.Age, &m.Gender, &m.ZipCode, &m.RiskBand, &m.PlanID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
