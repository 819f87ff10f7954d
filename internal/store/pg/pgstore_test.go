package pg

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"coursegram.app/internal/audit"
	"coursegram.app/internal/auth"
	"coursegram.app/internal/course"
	"coursegram.app/internal/expert"
	"coursegram.app/internal/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db), mock
}

func userRows(u user.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "telegram_id", "username", "first_name", "last_name", "photo_url",
		"platform_role", "banned_at", "banned_reason", "created_at", "updated_at",
	}).AddRow(u.ID, u.TelegramID, u.Username, u.FirstName, u.LastName, u.PhotoURL,
		string(u.PlatformRole), u.BannedAt, u.BannedReason, u.CreatedAt, u.UpdatedAt)
}

func TestFindByIDMapsMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("select (.+) from users where id").
		WithArgs("usr_missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.FindByID(context.Background(), "usr_missing")
	if err != user.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertByTelegramIDReturnsRow(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	want := user.User{
		ID:           "usr_1",
		TelegramID:   777000,
		Username:     "danak",
		PlatformRole: auth.PlatformRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	mock.ExpectQuery("insert into users").
		WithArgs("usr_1", int64(777000),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"user").
		WillReturnRows(userRows(want))

	got, err := s.UpsertByTelegramID(context.Background(), want)
	if err != nil {
		t.Fatalf("UpsertByTelegramID: %v", err)
	}
	if got.ID != want.ID || got.TelegramID != want.TelegramID {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetBannedWritesReasonAndTimestamp(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()
	banned := user.User{
		ID:           "usr_2",
		TelegramID:   5,
		PlatformRole: auth.PlatformRoleUser,
		BannedAt:     &now,
		BannedReason: "abuse",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	mock.ExpectQuery("update users set").
		WithArgs("usr_2", true, sqlmock.AnyArg()).
		WillReturnRows(userRows(banned))

	got, err := s.SetBanned(context.Background(), "usr_2", "abuse", true)
	if err != nil {
		t.Fatalf("SetBanned: %v", err)
	}
	if !got.IsBanned() || got.BannedReason != "abuse" {
		t.Fatalf("expected banned user, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateExpertIsTransactional(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("insert into experts").
		WithArgs("exp_1", "Astro School", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow("exp_1", "Astro School", nil, now, now))
	mock.ExpectExec("insert into expert_members").
		WithArgs("exp_1", "usr_owner", "owner").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.CreateExpert(context.Background(),
		expert.Expert{ID: "exp_1", Name: "Astro School"}, "usr_owner")
	if err != nil {
		t.Fatalf("CreateExpert: %v", err)
	}
	if got.ID != "exp_1" {
		t.Fatalf("unexpected expert: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateExpertRollsBackOnMemberFailure(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("insert into experts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
			AddRow("exp_1", "X", nil, now, now))
	mock.ExpectExec("insert into expert_members").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})
	mock.ExpectRollback()

	_, err := s.CreateExpert(context.Background(),
		expert.Expert{ID: "exp_1", Name: "X"}, "usr_ghost")
	if err != expert.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddMemberMapsUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("insert into expert_members").
		WithArgs("exp_1", "usr_1", "support").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	_, err := s.AddMember(context.Background(), expert.Membership{
		ExpertID: "exp_1", UserID: "usr_1", Role: auth.ExpertRoleSupport,
	})
	if err != expert.ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRemoveMemberMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("delete from expert_members").
		WithArgs("exp_1", "usr_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.RemoveMember(context.Background(), "exp_1", "usr_1")
	if err != expert.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCourseDeleteMissingRow(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("delete from courses").
		WithArgs("exp_1", "crs_1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), "exp_1", "crs_1")
	if err != course.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditAppendSerializesMeta(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into audit_log").
		WithArgs("aud_1", now, sqlmock.AnyArg(), "users.ban",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			[]byte(`{"reason":"spam"}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Append(context.Background(), audit.Entry{
		ID:          "aud_1",
		CreatedAt:   now,
		ActorUserID: "usr_admin",
		Action:      "users.ban",
		Meta:        map[string]any{"reason": "spam"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditListBuildsKeysetPredicate(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "created_at", "actor_user_id", "action", "entity_type", "entity_id", "trace_id", "meta",
	}).AddRow("aud_2", now, "usr_1", "auth.login", nil, nil, nil, []byte(`{}`))

	mock.ExpectQuery(`select (.+) from audit_log where action = \$1 and \(created_at, id\) < \(\$2, \$3\) order by created_at desc, id desc limit \$4`).
		WithArgs("auth.login", sqlmock.AnyArg(), "aud_9", 11).
		WillReturnRows(rows)

	cursor := &audit.Cursor{CreatedAt: now, ID: "aud_9"}
	got, err := s.Audit().List(context.Background(),
		audit.Filter{Action: "auth.login"},
		audit.Page{Limit: 11, Cursor: cursor})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "aud_2" {
		t.Fatalf("unexpected page: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditActionsDistinct(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("select distinct action from audit_log").
		WillReturnRows(sqlmock.NewRows([]string{"action"}).
			AddRow("auth.login").AddRow("users.ban"))

	got, err := s.Actions(context.Background())
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if len(got) != 2 || got[0] != "auth.login" {
		t.Fatalf("unexpected actions: %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
