package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/lumen/internal/model"
)

const scheduleColumns = `id, admin_owner_id, screen_ids, content, start_time, end_time, created_at`

type scheduleRow struct {
	ID           string         `db:"id"`
	AdminOwnerID string         `db:"admin_owner_id"`
	ScreenIDs    pq.StringArray `db:"screen_ids"`
	Content      model.Content  `db:"content"`
	StartTime    time.Time      `db:"start_time"`
	EndTime      time.Time      `db:"end_time"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r scheduleRow) entry() model.ScheduleEntry {
	ids := []string(r.ScreenIDs)
	if ids == nil {
		ids = []string{}
	}
	return model.ScheduleEntry{
		ID:           r.ID,
		AdminOwnerID: r.AdminOwnerID,
		ScreenIDs:    ids,
		Content:      r.Content,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		CreatedAt:    r.CreatedAt,
	}
}

func entries(rows []scheduleRow) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out
}

func (s *pgStore) CreateSchedule(ctx context.Context, entry model.ScheduleEntry) (model.ScheduleEntry, error) {
	var row scheduleRow
	const q = `
	INSERT INTO schedules (id, admin_owner_id, screen_ids, content, start_time, end_time, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, now())
	RETURNING ` + scheduleColumns + `;`
	err := s.db.GetContext(ctx, &row, q,
		uuid.NewString(), entry.AdminOwnerID, pq.StringArray(entry.ScreenIDs), entry.Content,
		entry.StartTime.UTC(), entry.EndTime.UTC(),
	)
	if err != nil {
		log.Error().Err(err).Str("admin_id", entry.AdminOwnerID).Msg("CreateSchedule failed")
		return model.ScheduleEntry{}, err
	}
	return row.entry(), nil
}

func (s *pgStore) GetSchedule(ctx context.Context, id string) (model.ScheduleEntry, error) {
	var row scheduleRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1;`, id); err != nil {
		return model.ScheduleEntry{}, notFound(err)
	}
	return row.entry(), nil
}

func (s *pgStore) ListSchedules(ctx context.Context, adminID string) ([]model.ScheduleEntry, error) {
	var rows []scheduleRow
	const q = `
	SELECT ` + scheduleColumns + `
	  FROM schedules
	 WHERE admin_owner_id = $1
	 ORDER BY start_time, created_at, id;`
	if err := s.db.SelectContext(ctx, &rows, q, adminID); err != nil {
		log.Error().Err(err).Str("admin_id", adminID).Msg("ListSchedules failed")
		return nil, err
	}
	return entries(rows), nil
}

// ListSchedulesForScreen returns every entry targeting screenID, past ones included,
// ordered by ascending start time. Screens resolve against this order.
func (s *pgStore) ListSchedulesForScreen(ctx context.Context, screenID string) ([]model.ScheduleEntry, error) {
	var rows []scheduleRow
	const q = `
	SELECT ` + scheduleColumns + `
	  FROM schedules
	 WHERE screen_ids @> ARRAY[$1]::text[]
	 ORDER BY start_time, created_at, id;`
	if err := s.db.SelectContext(ctx, &rows, q, screenID); err != nil {
		log.Error().Err(err).Str("screen_id", screenID).Msg("ListSchedulesForScreen failed")
		return nil, err
	}
	return entries(rows), nil
}

func (s *pgStore) DeleteSchedule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Str("schedule_id", id).Msg("DeleteSchedule failed")
		return err
	}
	return affected(res)
}
