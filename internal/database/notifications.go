package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/afikmenashe/adherence-platform/internal/notification"

	"github.com/lib/pq"
)

const notificationColumns = `notification_id, client_id, rule_key, entity_ref, message, recommended_action,
		severity, owner, sla_hours, status, created_at, acknowledged_at, resolved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*notification.Notification, error) {
	var n notification.Notification
	var ackAt, resolvedAt sql.NullTime
	if err := row.Scan(
		&n.ID,
		&n.ClientID,
		&n.RuleKey,
		&n.EntityRef,
		&n.Message,
		&n.RecommendedAction,
		&n.Severity,
		&n.Owner,
		&n.SLAHours,
		&n.Status,
		&n.CreatedAt,
		&ackAt,
		&resolvedAt,
	); err != nil {
		return nil, err
	}
	n.AcknowledgedAt = nullTime(ackAt)
	n.ResolvedAt = nullTime(resolvedAt)
	return &n, nil
}

// GetNotification retrieves a notification by ID.
func (db *DB) GetNotification(ctx context.Context, notificationID string) (*notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE notification_id = $1`

	n, err := scanNotification(db.conn.QueryRowContext(ctx, query, notificationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", notification.ErrNotFound, notificationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return n, nil
}

// QueryNotifications lists a client's notifications, newest first. An empty
// statuses slice means every status.
func (db *DB) QueryNotifications(ctx context.Context, clientID string, statuses []notification.Status) ([]*notification.Notification, error) {
	var query string
	var args []any

	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query = `
			SELECT ` + notificationColumns + `
			FROM notifications
			WHERE client_id = $1 AND status = ANY($2)
			ORDER BY created_at DESC
		`
		args = []any{clientID, pq.Array(names)}
	} else {
		query = `
			SELECT ` + notificationColumns + `
			FROM notifications
			WHERE client_id = $1
			ORDER BY created_at DESC
		`
		args = []any{clientID}
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*notification.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// InsertNotification inserts n with idempotency protection. The partial
// unique index on (client_id, rule_key, entity_ref) rejects a second
// non-resolved row; ON CONFLICT DO NOTHING turns that into a false return.
func (db *DB) InsertNotification(ctx context.Context, n *notification.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (notification_id, client_id, rule_key, entity_ref, message, recommended_action,
			severity, owner, sla_hours, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (client_id, rule_key, entity_ref) WHERE status <> 'RESOLVED' DO NOTHING
		RETURNING notification_id
	`

	var id string
	err := db.conn.QueryRowContext(ctx, query,
		n.ID,
		n.ClientID,
		n.RuleKey,
		n.EntityRef,
		n.Message,
		n.RecommendedAction,
		string(n.Severity),
		n.Owner,
		n.SLAHours,
		string(n.Status),
		n.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("Notification already exists, skipping",
				"client_id", n.ClientID,
				"rule_key", n.RuleKey,
				"entity_ref", n.EntityRef,
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to insert notification: %w", err)
	}

	slog.Info("Inserted new notification",
		"notification_id", id,
		"client_id", n.ClientID,
		"rule_key", n.RuleKey,
	)
	return true, nil
}

// UpdateNotificationStatus moves a notification from one status to another
// in a single conditional write, stamping the timestamp column of the target
// status. It reports false when the row was not in status from.
func (db *DB) UpdateNotificationStatus(ctx context.Context, notificationID string, from, to notification.Status, ts time.Time) (bool, error) {
	var column string
	switch to {
	case notification.StatusTriaged:
		column = "acknowledged_at"
	case notification.StatusResolved:
		column = "resolved_at"
	default:
		return false, fmt.Errorf("%w: cannot move to %s", notification.ErrIllegalTransition, to)
	}

	query := fmt.Sprintf(`
		UPDATE notifications
		SET status = $1, %s = $2
		WHERE notification_id = $3 AND status = $4
	`, column)

	result, err := db.conn.ExecContext(ctx, query, string(to), ts, notificationID, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to update notification status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// CountBreached counts non-resolved notifications whose SLA deadline is
// before now, across all clients.
func (db *DB) CountBreached(ctx context.Context, now time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE status <> 'RESOLVED'
		  AND created_at + make_interval(hours => sla_hours) < $1
	`
	var count int64
	if err := db.conn.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count breached notifications: %w", err)
	}
	return count, nil
}
