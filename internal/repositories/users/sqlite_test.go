package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/escolario/internal/common"
	"github.com/dmitrijs2005/escolario/internal/live"
	"github.com/dmitrijs2005/escolario/internal/models"
	"github.com/dmitrijs2005/escolario/internal/storage"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db, live.NewTracker()), db
}

func newUser(name, email, cpf string) *models.User {
	return &models.User{Name: name, Email: email, CPF: cpf, Password: "$2a$04$hash-of-" + name}
}

func countUsers(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	return n
}

func TestInsert_AssignsIDAndFindByEmail(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	u := newUser("Ana", "ana@x.com", "12345678901")
	require.NoError(t, r.Insert(ctx, u))
	require.NotZero(t, u.ID)

	got, err := r.FindByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, *u, *got)
}

func TestFindByEmail_CaseInsensitiveAndTrimmed(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newUser("Ana", "ana@x.com", "12345678901")))

	for _, q := range []string{"ANA@X.COM", "  Ana@x.com\t"} {
		got, err := r.FindByEmail(ctx, q)
		require.NoError(t, err, q)
		assert.Equal(t, "Ana", got.Name)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	r, _ := setupRepo(t)

	_, err := r.FindByEmail(context.Background(), "none@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInsert_DuplicateEmailIsConflict(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newUser("Ana", "ana@x.com", "12345678901")))

	dup := newUser("Bia", "ANA@x.com", "98765432100")
	err := r.Insert(ctx, dup)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeConflict))
	assert.Zero(t, dup.ID)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "email", oopsErr.Context()["column"])

	assert.Equal(t, 1, countUsers(t, db))
}

func TestInsert_DuplicateCPFIsConflict(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, newUser("Ana", "ana@x.com", "12345678901")))

	err := r.Insert(ctx, newUser("Bia", "bia@x.com", "12345678901"))
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeConflict))

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "cpf", oopsErr.Context()["column"])

	assert.Equal(t, 1, countUsers(t, db))
}

func TestInsert_RejectsEmptyFields(t *testing.T) {
	r, db := setupRepo(t)

	u := newUser("Ana", "ana@x.com", "12345678901")
	u.Password = ""
	err := r.Insert(context.Background(), u)
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeInvalidInput))

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, []string{"password"}, oopsErr.Context()["missing"])
	assert.Equal(t, 0, countUsers(t, db))
}

func TestFindByID(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	u := newUser("Ana", "ana@x.com", "12345678901")
	require.NoError(t, r.Insert(ctx, u))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", got.Email)

	_, err = r.FindByID(ctx, u.ID+100)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_CascadesNotesAndIsIdempotent(t *testing.T) {
	r, db := setupRepo(t)
	ctx := context.Background()

	u := newUser("Ana", "ana@x.com", "12345678901")
	require.NoError(t, r.Insert(ctx, u))
	other := newUser("Bia", "bia@x.com", "98765432100")
	require.NoError(t, r.Insert(ctx, other))

	for _, owner := range []int64{u.ID, u.ID, other.ID} {
		_, err := db.Exec(`INSERT INTO notes(user_id, subject, type, content, date) VALUES (?, 'Mat', 'Prova', 'x', '01/01/2024')`, owner)
		require.NoError(t, err)
	}

	require.NoError(t, r.Delete(ctx, u))

	_, err := r.FindByEmail(ctx, "ana@x.com")
	require.ErrorIs(t, err, common.ErrorNotFound)

	var orphans, kept int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes WHERE user_id = ?`, u.ID).Scan(&orphans))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes WHERE user_id = ?`, other.ID).Scan(&kept))
	assert.Equal(t, 0, orphans)
	assert.Equal(t, 1, kept)

	require.NoError(t, r.Delete(ctx, u), "second delete is a no-op")
}

func TestListRegularUsers_ExcludesAdminsAndIsOrdered(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	admin := newUser("Administrador", "admin@escolario.com", "00000000000")
	admin.IsAdmin = true
	require.NoError(t, r.Insert(ctx, admin))
	require.NoError(t, r.Insert(ctx, newUser("Carla", "carla@x.com", "33333333333")))
	require.NoError(t, r.Insert(ctx, newUser("Ana", "ana@x.com", "11111111111")))
	require.NoError(t, r.Insert(ctx, newUser("Bruno", "bruno@x.com", "22222222222")))

	list, err := r.ListRegularUsers().Get(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(list))
	for _, u := range list {
		names = append(names, u.Name)
		assert.Empty(t, u.Password)
		assert.False(t, u.IsAdmin)
	}
	assert.Equal(t, []string{"Ana", "Bruno", "Carla"}, names)
}

func TestListRegularUsers_EmptyIsNotNil(t *testing.T) {
	r, _ := setupRepo(t)

	list, err := r.ListRegularUsers().Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSearchRegularUsers_LikePattern(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	admin := newUser("Administrador", "admin@escolario.com", "00000000000")
	admin.IsAdmin = true
	require.NoError(t, r.Insert(ctx, admin))
	require.NoError(t, r.Insert(ctx, newUser("Ana Maria", "ana@x.com", "11111111111")))
	require.NoError(t, r.Insert(ctx, newUser("Mariana", "mari@x.com", "22222222222")))
	require.NoError(t, r.Insert(ctx, newUser("Bruno", "bruno@x.com", "33333333333")))

	list, err := r.SearchRegularUsers("%ana%").Get(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ana Maria", list[0].Name)
	assert.Equal(t, "Mariana", list[1].Name)

	list, err = r.SearchRegularUsers("Br_no").Get(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = r.SearchRegularUsers("%Admin%").Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListRegularUsers_ObserverSeesInsertAndDelete(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	var mu sync.Mutex
	var sizes []int
	obs := r.ListRegularUsers().Observe(ctx, func(list []models.User, err error) {
		assert.NoError(t, err)
		mu.Lock()
		sizes = append(sizes, len(list))
		mu.Unlock()
	})
	defer func() {
		obs.Cancel()
		<-obs.Done()
	}()

	lastSize := func() int {
		mu.Lock()
		defer mu.Unlock()
		if len(sizes) == 0 {
			return -1
		}
		return sizes[len(sizes)-1]
	}

	require.Eventually(t, func() bool { return lastSize() == 0 }, time.Second, 5*time.Millisecond)

	u := newUser("Ana", "ana@x.com", "12345678901")
	require.NoError(t, r.Insert(ctx, u))
	require.Eventually(t, func() bool { return lastSize() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Delete(ctx, u))
	require.Eventually(t, func() bool { return lastSize() == 0 }, time.Second, 5*time.Millisecond)
}

func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db, live.NewTracker()), mock
}

var errBusy = errors.New("database is locked (5) (SQLITE_BUSY)")

func TestInsert_RetriesWhileBusy(t *testing.T) {
	r, mock := newMockRepo(t)
	r.retryable = func(err error) bool { return errors.Is(err, errBusy) }

	q := `(?s)^INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password,\s*cpf,\s*is_admin\).*RETURNING\s+id\s*$`
	args := []driver.Value{"Ana", "ana@x.com", "$2a$04$hash-of-Ana", "12345678901", false}

	mock.ExpectQuery(q).WithArgs(args...).WillReturnError(errBusy)
	mock.ExpectQuery(q).WithArgs(args...).WillReturnError(errBusy)
	mock.ExpectQuery(q).WithArgs(args...).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	u := newUser("Ana", "ana@x.com", "12345678901")
	require.NoError(t, r.Insert(context.Background(), u))
	assert.Equal(t, int64(9), u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_GivesUpAfterRetries(t *testing.T) {
	r, mock := newMockRepo(t)
	r.retryable = func(err error) bool { return errors.Is(err, errBusy) }

	for i := 0; i < writeRetries+1; i++ {
		mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errBusy)
	}

	err := r.Insert(context.Background(), newUser("Ana", "ana@x.com", "12345678901"))
	require.ErrorIs(t, err, errBusy)
	require.ErrorContains(t, err, "failed to insert user")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_OtherErrorsAreNotRetried(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("disk I/O error"))

	err := r.Insert(context.Background(), newUser("Ana", "ana@x.com", "12345678901"))
	require.ErrorContains(t, err, "failed to insert user: disk I/O error")
	assert.False(t, common.HasCode(err, common.CodeConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_DBErrorWrapped(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \?`).
		WithArgs("ana@x.com").
		WillReturnError(errors.New("db down"))

	_, err := r.FindByEmail(context.Background(), " ana@x.com ")
	require.ErrorContains(t, err, "failed to find user by email: db down")
	require.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete_RollsBackWhenUserDeleteFails(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM notes WHERE user_id = \?`).WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM users WHERE id = \?`).WithArgs(int64(3)).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := r.Delete(context.Background(), &models.User{ID: 3})
	require.ErrorContains(t, err, "failed to delete user 3: boom")
	require.NoError(t, mock.ExpectationsWereMet())
}
