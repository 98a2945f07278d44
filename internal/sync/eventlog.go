package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// TypeRevalidate marks a rendered page whose cached copy is stale.
const TypeRevalidate = "revalidate"

type Event struct {
	Offset    int64  `json:"offset"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB, siteID string) *EventRepo {
	if siteID == "" {
		siteID = "local"
	}
	return &EventRepo{db: db, siteID: siteID}
}

// Revalidate records one revalidate event per path, in a single transaction.
func (r *EventRepo) Revalidate(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, p := range paths {
		data, _ := json.Marshal(map[string]string{"path": p})
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_log (site_id, typ, key, data, created_at) VALUES ($1,$2,$3,$4,$5)`,
			r.siteID, TypeRevalidate, p, string(data), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Since lists events with an offset greater than after, oldest first.
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		  WHERE seq > $1 ORDER BY seq ASC LIMIT $2`, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
