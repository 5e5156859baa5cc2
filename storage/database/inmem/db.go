package inmemdb

import (
	"sync"

	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
)

type (
	DB struct {
		user      *userTable
		timetable *timetableTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
		order []string
	}

	timetableTable struct {
		mutex   sync.RWMutex
		entries []timetable.Entry
		version int64
	}
)

func Open() *DB {
	return &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		timetable: &timetableTable{},
	}
}
