package db

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

func newMock(t *testing.T) (Store, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewStore(sqlx.NewDb(conn, "sqlmock")), mock
}

func TestGetUserByEmailNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "email", "hashed_password", "name", "created_at", "updated_at"}).
		AddRow("u1", "admin@example.com", "hash", nil, now, now)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "admin@example.com", "hash", nil).
		WillReturnRows(rows)

	u, err := store.CreateUser(context.Background(), "admin@example.com", "hash", nil)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Nil(t, u.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScreenDecodesDefaultContent(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "admin_owner_id", "name", "default_content", "created_at", "updated_at"}).
		AddRow("s1", "a1", "Lobby", []byte(`{"type":"image","data":{"name":"logo","url":"https://cdn/logo.png"}}`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM screens WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	screen, err := store.GetScreen(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, model.ImageRef{Name: "logo", URL: "https://cdn/logo.png"}, screen.DefaultContent.Unwrap())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetScreenWithoutDefault(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "admin_owner_id", "name", "default_content", "created_at", "updated_at"}).
		AddRow("s1", "a1", "Lobby", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM screens WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(rows)

	screen, err := store.GetScreen(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, screen.DefaultContent)
	assert.Nil(t, screen.DefaultContent.Unwrap())
}

func TestUpdateScreenMissingRow(t *testing.T) {
	store, mock := newMock(t)
	name := "Hall"

	mock.ExpectExec("UPDATE screens").
		WithArgs("missing", &name, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateScreen(context.Background(), "missing", model.ScreenPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateScreenClearDefault(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("default_content = NULL")).
		WithArgs("s1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateScreen(context.Background(), "s1", model.ScreenPatch{ClearDefault: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSchedulesForScreenOrdersByStart(t *testing.T) {
	store, mock := newMock(t)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "admin_owner_id", "screen_ids", "content", "start_time", "end_time", "created_at"}).
		AddRow("e1", "a1", "{s1,s2}", []byte(`{"type":"playlist","data":{"id":"p1","name":"Morning"}}`), start, start.Add(time.Hour), start).
		AddRow("e2", "a1", "{s1}", []byte(`{"type":"image","data":{"name":"x","url":"u"}}`), start.Add(time.Hour), start.Add(2*time.Hour), start)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE screen_ids @> ARRAY[$1]::text[]")).
		WithArgs("s1").
		WillReturnRows(rows)

	got, err := store.ListSchedulesForScreen(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"s1", "s2"}, got[0].ScreenIDs)
	assert.Equal(t, model.PlaylistRef{ID: "p1", Name: "Morning"}, got[0].Content.Ref)
	assert.Equal(t, "e2", got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSchedule(t *testing.T) {
	store, mock := newMock(t)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	content := model.Content{Ref: model.ImageRef{Name: "x", URL: "u"}}

	rows := sqlmock.NewRows([]string{"id", "admin_owner_id", "screen_ids", "content", "start_time", "end_time", "created_at"}).
		AddRow("e1", "a1", "{s1}", []byte(`{"type":"image","data":{"name":"x","url":"u"}}`), start, start.Add(time.Hour), start)
	mock.ExpectQuery("INSERT INTO schedules").
		WithArgs(sqlmock.AnyArg(), "a1", pq.StringArray{"s1"}, content, start, start.Add(time.Hour)).
		WillReturnRows(rows)

	got, err := store.CreateSchedule(context.Background(), model.ScheduleEntry{
		AdminOwnerID: "a1",
		ScreenIDs:    []string{"s1"},
		Content:      content,
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteScheduleMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedules WHERE id = $1")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, store.DeleteSchedule(context.Background(), "nope"), ErrNotFound)
}

func TestGetPlaylistItems(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "admin_owner_id", "name", "items", "created_at", "updated_at"}).
		AddRow("p1", "a1", "Morning", []byte(`[{"media":{"name":"a","url":"A"},"duration":5},{"media":{"name":"b","url":"B"}}]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM playlists WHERE id = $1")).
		WithArgs("p1").
		WillReturnRows(rows)

	p, err := store.GetPlaylist(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, p.Items, 2)
	assert.Equal(t, 5*time.Second, p.Items[0].Duration())
	assert.Equal(t, model.DefaultSlideDuration, p.Items[1].Duration())
}

func TestGetSettingsDefaultsWhenMissing(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM settings")).
		WithArgs("a1").
		WillReturnError(sql.ErrNoRows)

	st, err := store.GetSettings(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", st.AdminOwnerID)
	assert.Nil(t, st.GlobalDefaultContent)
}

func TestPutSettingsUpserts(t *testing.T) {
	store, mock := newMock(t)
	content := model.NewContent(model.ImageRef{Name: "brand", URL: "https://cdn/brand.png"})

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (admin_owner_id) DO UPDATE")).
		WithArgs("a1", content).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.PutSettings(context.Background(), model.Settings{AdminOwnerID: "a1", GlobalDefaultContent: content})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
