package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"coursegram.app/internal/audit"
)

func (s *Store) Append(ctx context.Context, e audit.Entry) error {
	metaJSON := []byte("{}")
	if len(e.Meta) > 0 {
		raw, err := json.Marshal(e.Meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		metaJSON = raw
	}
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log (id, created_at, actor_user_id, action, entity_type, entity_id, trace_id, meta)
		values ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.CreatedAt,
		nullIfEmpty(e.ActorUserID), e.Action,
		nullIfEmpty(e.EntityType), nullIfEmpty(e.EntityID),
		nullIfEmpty(e.TraceID), metaJSON)
	return err
}

// AuditStore adapts Store to audit.Store. The audit List signature
// collides with user.Store's List, so the two cannot share a receiver.
type AuditStore struct{ *Store }

// Audit returns the audit.Store view of s.
func (s *Store) Audit() AuditStore { return AuditStore{s} }

// List builds the filter predicate dynamically and pages with the
// (created_at, id) tuple so concurrent appends never shift a page.
func (s AuditStore) List(ctx context.Context, f audit.Filter, page audit.Page) ([]audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.ActorUserID != "" {
		where = append(where, "actor_user_id = "+arg(f.ActorUserID))
	}
	if f.Action != "" {
		where = append(where, "action = "+arg(f.Action))
	}
	if f.EntityType != "" {
		where = append(where, "entity_type = "+arg(f.EntityType))
	}
	if f.EntityID != "" {
		where = append(where, "entity_id = "+arg(f.EntityID))
	}
	if f.TraceID != "" {
		where = append(where, "trace_id = "+arg(f.TraceID))
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at <= "+arg(f.To))
	}
	if page.Cursor != nil {
		where = append(where,
			"(created_at, id) < ("+arg(page.Cursor.CreatedAt)+", "+arg(page.Cursor.ID)+")")
	}

	query := `select id, created_at, actor_user_id, action, entity_type, entity_id, trace_id, meta from audit_log`
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by created_at desc, id desc"
	if page.Limit > 0 {
		query += " limit " + arg(page.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []audit.Entry
	for rows.Next() {
		var (
			e       audit.Entry
			actor   sql.NullString
			eType   sql.NullString
			eID     sql.NullString
			traceID sql.NullString
			rawMeta []byte
		)
		if err := rows.Scan(&e.ID, &e.CreatedAt, &actor, &e.Action, &eType, &eID, &traceID, &rawMeta); err != nil {
			return nil, err
		}
		e.ActorUserID = actor.String
		e.EntityType = eType.String
		e.EntityID = eID.String
		e.TraceID = traceID.String
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &e.Meta); err != nil {
				return nil, fmt.Errorf("decode meta: %w", err)
			}
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) Actions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select distinct action from audit_log order by action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
