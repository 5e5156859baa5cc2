package sqlrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core/timetable"
)

type timetableRepository struct {
	db *sqlx.DB
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *sqlx.DB) timetable.Repository {
	return &timetableRepository{db: db}
}

type entryRow struct {
	ID           string      `db:"id"`
	Seq          int         `db:"seq"`
	Subject      string      `db:"subject"`
	Day          string      `db:"day"`
	StartTime    string      `db:"start_time"`
	EndTime      string      `db:"end_time"`
	TeacherID    string      `db:"teacher_id"`
	IsLunchBreak bool        `db:"is_lunch_break"`
	IsCancelled  bool        `db:"is_cancelled"`
	CancelledAt  null.String `db:"cancelled_at"`
	CancelReason null.String `db:"cancel_reason"`
	CreatedAt    string      `db:"created_at"`
}

func newEntryRow(seq int, e timetable.Entry) entryRow {
	row := entryRow{
		ID:           e.ID,
		Seq:          seq,
		Subject:      e.Subject,
		Day:          e.Day,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		TeacherID:    e.TeacherID,
		IsLunchBreak: e.IsLunchBreak,
		IsCancelled:  e.IsCancelled,
		CancelReason: null.NewString(e.CancelReason, e.CancelReason != ""),
		CreatedAt:    formatTime(e.CreatedAt),
	}
	if e.CancelledAt != nil {
		row.CancelledAt = null.StringFrom(formatTime(*e.CancelledAt))
	}
	return row
}

func (row entryRow) entry() (timetable.Entry, error) {
	e := timetable.Entry{
		ID:           row.ID,
		Subject:      row.Subject,
		Day:          row.Day,
		StartTime:    row.StartTime,
		EndTime:      row.EndTime,
		TeacherID:    row.TeacherID,
		IsLunchBreak: row.IsLunchBreak,
		IsCancelled:  row.IsCancelled,
		CancelReason: row.CancelReason.String,
	}
	var err error
	if e.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return timetable.Entry{}, err
	}
	if row.CancelledAt.Valid {
		var t time.Time
		if t, err = parseTime(row.CancelledAt.String); err != nil {
			return timetable.Entry{}, err
		}
		e.CancelledAt = &t
	}
	return e, nil
}

// GetAll reads the version before the entries so that a concurrent save can only make the version stale.
func (repo *timetableRepository) GetAll(ctx context.Context) ([]timetable.Entry, int64, error) {
	var version int64
	if err := repo.db.GetContext(ctx, &version, `SELECT version FROM timetable_meta WHERE id = 1`); err != nil {
		return nil, 0, errors.Wrap(err, "selecting timetable version")
	}

	var rows []entryRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM timetable_entries ORDER BY seq`); err != nil {
		return nil, 0, errors.Wrap(err, "selecting timetable entries")
	}
	entries := make([]timetable.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := row.entry()
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, version, nil
}

func (repo *timetableRepository) SaveAll(ctx context.Context, entries []timetable.Entry, version int64) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE timetable_meta SET version = version + 1 WHERE id = 1 AND version = ?`), version)
	if err != nil {
		return errors.Wrap(err, "bumping timetable version")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "bumping timetable version")
	}
	if n == 0 {
		return timetable.ErrStaleVersion
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries`); err != nil {
		return errors.Wrap(err, "clearing timetable entries")
	}
	q := `INSERT INTO timetable_entries
		(id, seq, subject, day, start_time, end_time, teacher_id, is_lunch_break, is_cancelled, cancelled_at, cancel_reason, created_at)
		VALUES
		(:id, :seq, :subject, :day, :start_time, :end_time, :teacher_id, :is_lunch_break, :is_cancelled, :cancelled_at, :cancel_reason, :created_at)`
	for i, e := range entries {
		if _, err = sqlx.NamedExecContext(ctx, tx, q, newEntryRow(i, e)); err != nil {
			return errors.Wrapf(err, "inserting timetable entry %s", e.ID)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing timetable")
	}
	return nil
}
