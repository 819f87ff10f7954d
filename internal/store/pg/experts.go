package pg

import (
	"context"
	"database/sql"
	"errors"

	"coursegram.app/internal/auth"
	"coursegram.app/internal/expert"
)

const expertColumns = `id, name, description, created_at, updated_at`

func scanExpert(row interface{ Scan(...any) error }) (expert.Expert, error) {
	var (
		e    expert.Expert
		desc sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Name, &desc, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return expert.Expert{}, err
	}
	e.Description = desc.String
	return e, nil
}

// CreateExpert inserts the scope and its initial owner membership in a
// single transaction, so a scope can never exist without an owner.
func (s *Store) CreateExpert(ctx context.Context, e expert.Expert, ownerUserID string) (expert.Expert, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return expert.Expert{}, err
	}
	defer func() { _ = tx.Rollback() }()

	created, err := scanExpert(tx.QueryRowContext(ctx, `
		insert into experts (id, name, description)
		values ($1, $2, $3)
		returning `+expertColumns,
		e.ID, e.Name, nullIfEmpty(e.Description)))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return expert.Expert{}, expert.ErrConflict
		}
		return expert.Expert{}, err
	}

	if _, err := tx.ExecContext(ctx, `
		insert into expert_members (expert_id, user_id, role)
		values ($1, $2, $3)`,
		created.ID, ownerUserID, string(auth.ExpertRoleOwner)); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return expert.Expert{}, expert.ErrNotFound
		}
		return expert.Expert{}, err
	}

	if err := tx.Commit(); err != nil {
		return expert.Expert{}, err
	}
	return created, nil
}

func (s *Store) GetExpert(ctx context.Context, id string) (expert.Expert, error) {
	e, err := scanExpert(s.db.QueryRowContext(ctx,
		`select `+expertColumns+` from experts where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return expert.Expert{}, expert.ErrNotFound
	}
	return e, err
}

func (s *Store) ListExperts(ctx context.Context) ([]expert.Expert, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+expertColumns+` from experts order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []expert.Expert
	for rows.Next() {
		e, err := scanExpert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func scanMembership(row interface{ Scan(...any) error }) (expert.Membership, error) {
	var (
		m    expert.Membership
		role string
	)
	if err := row.Scan(&m.ExpertID, &m.UserID, &role, &m.CreatedAt); err != nil {
		return expert.Membership{}, err
	}
	m.Role = auth.ExpertRole(role)
	return m, nil
}

func (s *Store) AddMember(ctx context.Context, m expert.Membership) (expert.Membership, error) {
	added, err := scanMembership(s.db.QueryRowContext(ctx, `
		insert into expert_members (expert_id, user_id, role)
		values ($1, $2, $3)
		returning expert_id, user_id, role, created_at`,
		m.ExpertID, m.UserID, string(m.Role)))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok {
			switch pgErr.Code {
			case pgErrUniqueViolation:
				return expert.Membership{}, expert.ErrConflict
			case pgErrForeignKeyViolation:
				return expert.Membership{}, expert.ErrNotFound
			}
		}
		return expert.Membership{}, err
	}
	return added, nil
}

func (s *Store) UpdateMemberRole(ctx context.Context, expertID, userID string, role auth.ExpertRole) (expert.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx, `
		update expert_members set role = $3
		where expert_id = $1 and user_id = $2
		returning expert_id, user_id, role, created_at`,
		expertID, userID, string(role)))
	if errors.Is(err, sql.ErrNoRows) {
		return expert.Membership{}, expert.ErrNotFound
	}
	return m, err
}

func (s *Store) RemoveMember(ctx context.Context, expertID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from expert_members where expert_id = $1 and user_id = $2`,
		expertID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return expert.ErrNotFound
	}
	return nil
}

func (s *Store) FindMember(ctx context.Context, expertID, userID string) (expert.Membership, error) {
	m, err := scanMembership(s.db.QueryRowContext(ctx, `
		select expert_id, user_id, role, created_at
		from expert_members
		where expert_id = $1 and user_id = $2`,
		expertID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return expert.Membership{}, expert.ErrNotFound
	}
	return m, err
}

func (s *Store) ListMembers(ctx context.Context, expertID string) ([]expert.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		select expert_id, user_id, role, created_at
		from expert_members
		where expert_id = $1
		order by created_at, user_id`, expertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []expert.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
