package inmemdb

import (
	"context"

	"github.com/trezcool/ratiba/core/timetable"
)

type timetableRepository struct {
	db *timetableTable
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db.timetable}
}

func (repo *timetableRepository) GetAll(_ context.Context) ([]timetable.Entry, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]timetable.Entry(nil), repo.db.entries...), repo.db.version, nil
}

func (repo *timetableRepository) SaveAll(_ context.Context, entries []timetable.Entry, version int64) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.version != version {
		return timetable.ErrStaleVersion
	}
	repo.db.entries = append([]timetable.Entry(nil), entries...)
	repo.db.version++
	return nil
}
