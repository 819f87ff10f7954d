package pg

import (
	"context"
	"database/sql"
	"errors"

	"coursegram.app/internal/course"
)

const courseColumns = `id, expert_id, title, description, published, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (course.Course, error) {
	var (
		c    course.Course
		desc sql.NullString
	)
	err := row.Scan(&c.ID, &c.ExpertID, &c.Title, &desc, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return course.Course{}, err
	}
	c.Description = desc.String
	return c, nil
}

func (s *Store) Create(ctx context.Context, c course.Course) (course.Course, error) {
	created, err := scanCourse(s.db.QueryRowContext(ctx, `
		insert into courses (id, expert_id, title, description, published)
		values ($1, $2, $3, $4, $5)
		returning `+courseColumns,
		c.ID, c.ExpertID, c.Title, nullIfEmpty(c.Description), c.Published))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, err
	}
	return created, nil
}

func (s *Store) Get(ctx context.Context, expertID, id string) (course.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx,
		`select `+courseColumns+` from courses where expert_id = $1 and id = $2`,
		expertID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return course.Course{}, course.ErrNotFound
	}
	return c, err
}

// Update patches only the fields the caller set, in one statement.
func (s *Store) Update(ctx context.Context, expertID, id string, upd course.Update) (course.Course, error) {
	var desc sql.NullString
	if upd.Description != nil {
		desc = nullIfEmpty(*upd.Description)
	}
	c, err := scanCourse(s.db.QueryRowContext(ctx, `
		update courses set
			title       = coalesce($3, title),
			description = case when $4 then $5 else description end,
			published   = coalesce($6, published),
			updated_at  = now()
		where expert_id = $1 and id = $2
		returning `+courseColumns,
		expertID, id, upd.Title, upd.Description != nil, desc, upd.Published))
	if errors.Is(err, sql.ErrNoRows) {
		return course.Course{}, course.ErrNotFound
	}
	return c, err
}

func (s *Store) Delete(ctx context.Context, expertID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from courses where expert_id = $1 and id = $2`, expertID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (s *Store) ListByExpert(ctx context.Context, expertID string) ([]course.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+courseColumns+` from courses where expert_id = $1 order by created_at, id`,
		expertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []course.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
