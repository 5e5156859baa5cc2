package user

import (
	"context"
	"errors"

	"github.com/trezcool/ratiba/core/timetable"
)

type teacherDirectory struct {
	repo Repository
}

var _ timetable.TeacherDirectory = (*teacherDirectory)(nil)

// NewTeacherDirectory exposes the teachers of `repo` to the timetable.
func NewTeacherDirectory(repo Repository) timetable.TeacherDirectory {
	return &teacherDirectory{repo: repo}
}

func (dir *teacherDirectory) GetTeacher(ctx context.Context, id string) (timetable.Teacher, error) {
	usr, err := dir.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return timetable.Teacher{}, timetable.ErrTeacherNotFound
		}
		return timetable.Teacher{}, err
	}
	if !usr.IsTeacher() {
		return timetable.Teacher{}, timetable.ErrTeacherNotFound
	}
	return usr.Teacher(), nil
}

func (dir *teacherDirectory) QueryTeachers(ctx context.Context) ([]timetable.Teacher, error) {
	users, err := dir.repo.QueryAllUsers(ctx)
	if err != nil {
		return nil, err
	}
	teachers := make([]timetable.Teacher, 0, len(users))
	for _, usr := range users {
		if usr.IsTeacher() {
			teachers = append(teachers, usr.Teacher())
		}
	}
	return teachers, nil
}
