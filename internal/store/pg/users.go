package pg

import (
	"context"
	"database/sql"
	"errors"

	"coursegram.app/internal/auth"
	"coursegram.app/internal/user"
)

const userColumns = `id, telegram_id, username, first_name, last_name, photo_url,
	platform_role, banned_at, banned_reason, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (user.User, error) {
	var (
		u        user.User
		username sql.NullString
		first    sql.NullString
		last     sql.NullString
		photo    sql.NullString
		reason   sql.NullString
		role     string
	)
	err := row.Scan(&u.ID, &u.TelegramID, &username, &first, &last, &photo,
		&role, &u.BannedAt, &reason, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	u.Username = username.String
	u.FirstName = first.String
	u.LastName = last.String
	u.PhotoURL = photo.String
	u.BannedReason = reason.String
	u.PlatformRole = auth.PlatformRole(role)
	return u, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (s *Store) FindByTelegramID(ctx context.Context, telegramID int64) (user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where telegram_id = $1`, telegramID))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

// UpsertByTelegramID inserts on first login and refreshes display fields on
// later ones. Role and ban state are never written by this path.
func (s *Store) UpsertByTelegramID(ctx context.Context, in user.User) (user.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `
		insert into users (id, telegram_id, username, first_name, last_name, photo_url, platform_role)
		values ($1, $2, $3, $4, $5, $6, $7)
		on conflict (telegram_id) do update set
			username   = excluded.username,
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			photo_url  = excluded.photo_url,
			updated_at = now()
		returning `+userColumns,
		in.ID, in.TelegramID,
		nullIfEmpty(in.Username), nullIfEmpty(in.FirstName),
		nullIfEmpty(in.LastName), nullIfEmpty(in.PhotoURL),
		string(in.PlatformRole)))
}

func (s *Store) UpdatePlatformRole(ctx context.Context, id string, role auth.PlatformRole) (user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		update users set platform_role = $2, updated_at = now()
		where id = $1
		returning `+userColumns, id, string(role)))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (s *Store) SetBanned(ctx context.Context, id, reason string, banned bool) (user.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		update users set
			banned_at     = case when $2 then now() else null end,
			banned_reason = case when $2 then $3 else null end,
			updated_at    = now()
		where id = $1
		returning `+userColumns, id, banned, nullIfEmpty(reason)))
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, user.ErrNotFound
	}
	return u, err
}

func (s *Store) List(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}
