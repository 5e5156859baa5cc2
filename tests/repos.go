package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
)

// RunUserRepositoryTests checks the behaviour every user.Repository must share. `repo` must be empty.
func RunUserRepositoryTests(t *testing.T, repo user.Repository) {
	ctx := context.Background()
	tstamp := time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)

	jane := user.User{
		ID:           "u-jane",
		Name:         "Jane",
		Username:     "jane",
		Email:        "jane@school.ke",
		Role:         core.RoleTeacher,
		PasswordHash: []byte("hash"),
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
		LunchConfig:  timetable.LunchConfig{Start: "12:00", End: "13:00"},
	}
	kid := user.User{ID: "u-kid", Name: "Kid", Username: "kid", Role: core.RoleStudent, IsApproved: true, CreatedAt: tstamp.Add(time.Minute), UpdatedAt: tstamp}

	_, err := repo.CreateUser(ctx, jane)
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, kid)
	require.NoError(t, err)

	t.Run("duplicate username", func(t *testing.T) {
		dup := kid
		dup.ID = "u-dup"
		_, err := repo.CreateUser(ctx, dup)
		assert.True(t, errors.Is(err, user.ErrUsernameExists), "CreateUser() error = %v", err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.Equal(t, jane.Username, got.Username)
		assert.Equal(t, jane.Role, got.Role)
		assert.Equal(t, jane.PasswordHash, got.PasswordHash)
		assert.Equal(t, jane.LunchConfig, got.LunchConfig)
		assert.True(t, tstamp.Equal(got.CreatedAt))
		assert.True(t, got.LastLogin.IsZero())

		got, err = repo.GetUserByUsername(ctx, kid.Username)
		require.NoError(t, err)
		assert.Equal(t, kid.ID, got.ID)
		assert.True(t, got.IsApproved)

		_, err = repo.GetUserByID(ctx, "nope")
		assert.True(t, errors.Is(err, user.ErrNotFound))
		_, err = repo.GetUserByUsername(ctx, "nope")
		assert.True(t, errors.Is(err, user.ErrNotFound))
	})

	t.Run("query all", func(t *testing.T) {
		users, err := repo.QueryAllUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, jane.ID, users[0].ID)
		assert.Equal(t, kid.ID, users[1].ID)
	})

	t.Run("update", func(t *testing.T) {
		upd := jane
		upd.IsApproved = true
		upd.LastLogin = tstamp.Add(time.Hour)
		upd.LunchConfig = timetable.LunchConfig{
			Start:     "12:30",
			End:       "13:15",
			Overrides: map[string]timetable.Window{"Friday": {Start: "11:00", End: "11:45"}},
		}
		_, err := repo.UpdateUser(ctx, upd)
		require.NoError(t, err)

		got, err := repo.GetUserByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.True(t, got.IsApproved)
		assert.True(t, upd.LastLogin.Equal(got.LastLogin))
		assert.Equal(t, upd.LunchConfig, got.LunchConfig)

		upd.LunchConfig = timetable.LunchConfig{}
		_, err = repo.UpdateUser(ctx, upd)
		require.NoError(t, err)
		got, err = repo.GetUserByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.Equal(t, "", got.Start)
		assert.Empty(t, got.Overrides)

		clash := kid
		clash.Username = jane.Username
		_, err = repo.UpdateUser(ctx, clash)
		assert.True(t, errors.Is(err, user.ErrUsernameExists), "UpdateUser() error = %v", err)

		_, err = repo.UpdateUser(ctx, user.User{ID: "nope", Username: "nope"})
		assert.True(t, errors.Is(err, user.ErrNotFound))
	})
}

// RunTimetableRepositoryTests checks the behaviour every timetable.Repository must share. `repo` must be empty.
func RunTimetableRepositoryTests(t *testing.T, repo timetable.Repository) {
	ctx := context.Background()
	tstamp := time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)
	cancelledAt := tstamp.Add(time.Hour)

	entries := []timetable.Entry{
		{ID: "tt-2", Subject: "Physics", Day: "Monday", StartTime: "10:00", EndTime: "11:00", TeacherID: "t2", CreatedAt: tstamp},
		{ID: "tt-1", Subject: "Math", Day: "Monday", StartTime: "09:00", EndTime: "10:00", TeacherID: "t1", CreatedAt: tstamp,
			IsCancelled: true, CancelledAt: &cancelledAt, CancelReason: "sick"},
		{ID: "tt-3", Subject: timetable.LunchBreakSubject, Day: "Tuesday", StartTime: "12:00", EndTime: "13:00", TeacherID: "t1", IsLunchBreak: true, CreatedAt: tstamp},
	}

	got, version, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.SaveAll(ctx, entries, version))

	got, next, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, version, next)
	require.Len(t, got, len(entries))
	for i, e := range entries {
		assert.Equal(t, e.ID, got[i].ID, "insertion order must be kept")
		assert.Equal(t, e.Subject, got[i].Subject)
		assert.Equal(t, e.IsLunchBreak, got[i].IsLunchBreak)
		assert.Equal(t, e.IsCancelled, got[i].IsCancelled)
		assert.Equal(t, e.CancelReason, got[i].CancelReason)
		assert.True(t, e.CreatedAt.Equal(got[i].CreatedAt))
		assert.Equal(t, time.UTC, got[i].CreatedAt.Location())
	}
	require.NotNil(t, got[1].CancelledAt)
	assert.True(t, cancelledAt.Equal(*got[1].CancelledAt))
	assert.Equal(t, time.UTC, got[1].CancelledAt.Location())
	assert.Nil(t, got[0].CancelledAt)

	t.Run("stale version", func(t *testing.T) {
		err := repo.SaveAll(ctx, entries[:1], version)
		assert.True(t, errors.Is(err, timetable.ErrStaleVersion), "SaveAll() error = %v", err)

		kept, _, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, kept, len(entries))
	})

	t.Run("replace", func(t *testing.T) {
		require.NoError(t, repo.SaveAll(ctx, entries[:1], next))
		kept, _, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, kept, 1)
		assert.Equal(t, "tt-2", kept[0].ID)
	})
}
