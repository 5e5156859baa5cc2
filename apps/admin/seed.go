package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
)

const (
	seedAdminPassword   = "Admin#2024"
	seedTeacherPassword = "Teacher#2024"
	seedStudentPassword = "Student#2024"
)

var (
	errAlreadySeeded = errors.New("database already seeded")

	seedTeachers = []struct{ name, subject string }{
		{"Dr. Rajesh Kumar", "Database Management"},
		{"Prof. Priya Sharma", "Web Development"},
		{"Dr. Amit Patel", "Network Security"},
		{"Dr. Neha Verma", "Data Structures"},
		{"Prof. Arun Mishra", "Operating Systems"},
	}
	seedStudents = []string{"Rahul Sharma", "Sneha Gupta", "Aditya Roy", "Pooja Shah"}

	// lecture start hours, the default lunch window sits in the 12:00 gap
	seedHours = []int{8, 9, 10, 11, 13, 14}
)

// seed loads demo users and a conflict-free week of lectures.
func (cli *commandLine) seed() error {
	ctx := context.Background()

	if _, err := cli.usrSvc.GetByUsername(ctx, "admin"); err == nil {
		return errAlreadySeeded
	} else if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	if _, err := cli.createSeedUser(ctx, "Administrator", "admin", core.RoleAdmin, seedAdminPassword); err != nil {
		return err
	}
	for _, name := range seedStudents {
		if _, err := cli.createSeedUser(ctx, name, seedUsername(name), core.RoleStudent, seedStudentPassword); err != nil {
			return err
		}
	}

	for i, t := range seedTeachers {
		usr, err := cli.createSeedUser(ctx, t.name, seedUsername(t.name), core.RoleTeacher, seedTeacherPassword)
		if err != nil {
			return err
		}
		start, end := "12:00", "13:00"
		if _, err = cli.usrSvc.UpdateLunchBreak(ctx, usr.Identity(), user.LunchUpdate{Start: &start, End: &end}); err != nil {
			return errors.Wrapf(err, "setting lunch break of %s", usr.Username)
		}

		for d, day := range timetable.Days {
			hour := seedHours[(i+d)%len(seedHours)]
			_, err = cli.ttSvc.Create(ctx, usr.Identity(), timetable.NewEntry{
				Subject:   t.subject,
				Day:       day,
				StartTime: fmt.Sprintf("%02d:00", hour),
				EndTime:   fmt.Sprintf("%02d:00", hour+1),
			})
			if err != nil {
				return errors.Wrapf(err, "scheduling %s on %s", t.subject, day)
			}
		}
	}

	fmt.Printf("seeded %d teachers and %d students\n", len(seedTeachers), len(seedStudents))
	return nil
}

func (cli *commandLine) createSeedUser(ctx context.Context, name, uname string, role core.Role, pwd string) (user.User, error) {
	usr, err := cli.usrSvc.Create(ctx, user.NewUser{
		Name:            name,
		Username:        uname,
		Role:            role,
		IsApproved:      true,
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	return usr, errors.Wrapf(err, "creating %s", uname)
}

// seedUsername turns "Dr. Neha Verma" into "neha.verma".
func seedUsername(name string) string {
	parts := strings.Fields(strings.ToLower(name))
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.Join(parts, ".")
}
