package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	exportsvc "github.com/trezcool/ratiba/services/export"
	"github.com/trezcool/ratiba/tests"
)

type ttFixture struct {
	srv  *Server
	env  *testutil.Env
	math timetable.Entry

	aliceToken string
	bobToken   string
	adminToken string
	kidToken   string
}

func setupTimetable(t *testing.T) ttFixture {
	srv, env := setup(t)

	alice := testutil.CreateTeacher(t, env.UserRepo, "Alice", "alice", timetable.LunchConfig{Start: "12:00", End: "13:00"})
	bob := testutil.CreateTeacher(t, env.UserRepo, "Bob", "bob", timetable.LunchConfig{})
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin", core.RoleAdmin, true)
	kid := testutil.CreateUser(t, env.UserRepo, "Kid", "kid", core.RoleStudent, true)

	math, err := env.TimetableSvc.Create(context.Background(), alice.Identity(), timetable.NewEntry{Subject: "Math", Day: "Monday", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	return ttFixture{
		srv:        srv,
		env:        env,
		aliceToken: getToken(t, srv, alice),
		bobToken:   getToken(t, srv, bob),
		adminToken: getToken(t, srv, admin),
		kidToken:   getToken(t, srv, kid),
		math:       math,
	}
}

func Test_timetableApi_create(t *testing.T) {
	f := setupTimetable(t)

	entry := func(subject, day, start, end string) []byte {
		return marshallObj(t, timetable.NewEntry{Subject: subject, Day: day, StartTime: start, EndTime: end})
	}
	conflict := f.math

	tests := []httpTest{
		{name: "auth required", body: entry("Art", "Tuesday", "09:00", "10:00"), wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "students cannot", token: f.kidToken, body: entry("Art", "Tuesday", "09:00", "10:00"),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admins cannot", token: f.adminToken, body: entry("Art", "Tuesday", "09:00", "10:00"),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "missing subject", token: f.bobToken, body: entry("", "Tuesday", "09:00", "10:00"),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"subject": "this field is required"}),
		},
		{
			name: "bad range", token: f.bobToken, body: entry("Art", "Tuesday", "10:00", "09:00"),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"error": "Invalid time range: start time must be before end time.", "kind": "InvalidTimeRange"}),
		},
		{
			name: "schedule conflict", token: f.bobToken, body: entry("Art", "monday", "09:30", "10:30"),
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, scheduleErrorResponse{
				Error:            "Time conflict: Alice already has class on Monday from 09:00 to 10:00.",
				Kind:             timetable.KindScheduleConflict,
				ConflictingEntry: &conflict,
			}),
		},
		{
			name: "lunch break conflict", token: f.aliceToken, body: entry("Art", "Friday", "12:30", "13:30"),
			wantCode: http.StatusConflict,
			wantData: marshallObj(t, scheduleErrorResponse{
				Error:      "Time conflict: Lunch break is set on Friday from 12:00 to 13:00.",
				Kind:       timetable.KindLunchBreakConflict,
				LunchBreak: &timetable.Window{Start: "12:00", End: "13:00"},
			}),
		},
		{name: "created", token: f.bobToken, body: entry("Art", "Monday", "10:00", "11:00"), wantCode: http.StatusCreated},
		{
			name: "lunch break row", token: f.bobToken,
			body:     []byte(`{"day": "Monday", "start_time": "12:00", "end_time": "13:00", "is_lunch_break": true}`),
			wantCode: http.StatusCreated,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/timetable"
	}
	runHTTPTests(t, f.srv, tests)

	entries, _, err := f.env.TimetableRepo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Art", entries[1].Subject)
	assert.Equal(t, timetable.LunchBreakSubject, entries[2].Subject)
}

func Test_timetableApi_update(t *testing.T) {
	f := setupTimetable(t)
	path := "/v1/timetable/" + f.math.ID

	tests := []httpTest{
		{name: "auth required", path: path, body: []byte(`{"subject": "Algebra"}`), wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "not found", path: "/v1/timetable/nope", token: f.aliceToken, body: []byte(`{"subject": "Algebra"}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, map[string]string{"error": "Timetable entry not found.", "kind": "NotFound"}),
		},
		{
			name: "not the owner", path: path, token: f.bobToken, body: []byte(`{"subject": "Algebra"}`),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, map[string]string{"error": "You can only modify your own timetable entries.", "kind": "Forbidden"}),
		},
		{
			name: "no changes", path: path, token: f.aliceToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, map[string]string{"error": "No changes provided.", "kind": "NoChangesProvided"}),
		},
		{name: "into lunch", path: path, token: f.aliceToken, body: []byte(`{"start_time": "12:00", "end_time": "12:30"}`), wantCode: http.StatusConflict},
		{name: "reschedule", path: path, token: f.aliceToken, body: []byte(`{"start_time": "08:00", "subject": "Algebra"}`), wantCode: http.StatusOK},
		{name: "cancel", path: path, token: f.aliceToken, body: []byte(`{"is_cancelled": true, "cancel_reason": "sick"}`), wantCode: http.StatusOK},
	}
	for i := range tests {
		tests[i].method = http.MethodPut
	}
	runHTTPTests(t, f.srv, tests)

	entries, _, err := f.env.TimetableRepo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	got := entries[0]
	assert.Equal(t, "Algebra", got.Subject)
	assert.Equal(t, "08:00", got.StartTime)
	assert.True(t, got.IsCancelled)
	assert.Equal(t, "sick", got.CancelReason)
	assert.NotNil(t, got.CancelledAt)
}

func Test_timetableApi_destroy(t *testing.T) {
	f := setupTimetable(t)
	path := "/v1/timetable/" + f.math.ID

	tests := []httpTest{
		{name: "auth required", path: path, wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "students cannot", path: path, token: f.kidToken, wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"})},
		{name: "not the owner", path: path, token: f.bobToken, wantCode: http.StatusForbidden},
		{name: "deleted", path: path, token: f.aliceToken, wantCode: http.StatusNoContent},
		{name: "gone", path: path, token: f.aliceToken, wantCode: http.StatusNotFound},
	}
	for i := range tests {
		tests[i].method = http.MethodDelete
	}
	runHTTPTests(t, f.srv, tests)
}

func Test_timetableApi_query(t *testing.T) {
	f := setupTimetable(t)

	tests := []struct {
		name        string
		token       string
		query       string
		wantLen     int
		wantVirtual int
	}{
		{name: "teacher sees own", token: f.bobToken, wantLen: 0},
		{name: "teacher with scope all", token: f.bobToken, query: "?scope=all", wantLen: 1},
		{name: "admin", token: f.adminToken, wantLen: 1},
		{name: "student", token: f.kidToken, wantLen: 1 + len(timetable.Days), wantVirtual: len(timetable.Days)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/timetable"+tt.query, tt.token)
			f.srv.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var views []timetable.EntryView
			unmarshall(t, rec, &views)
			assert.Len(t, views, tt.wantLen)

			var virtual int
			for _, v := range views {
				if v.IsVirtual {
					virtual++
					assert.Equal(t, "Alice", v.TeacherName)
				}
			}
			assert.Equal(t, tt.wantVirtual, virtual)
		})
	}

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/timetable")
		f.srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func Test_timetableApi_export(t *testing.T) {
	f := setupTimetable(t)

	tests := []struct {
		name            string
		query           string
		wantCode        int
		wantContentType string
		wantFilename    string
	}{
		{name: "default", wantCode: http.StatusOK, wantContentType: exportsvc.ContentTypeXLSX, wantFilename: `attachment; filename="timetable.xlsx"`},
		{name: "xlsx", query: "?format=xlsx&scope=all", wantCode: http.StatusOK, wantContentType: exportsvc.ContentTypeXLSX, wantFilename: `attachment; filename="timetable.xlsx"`},
		{name: "pdf", query: "?format=PDF", wantCode: http.StatusOK, wantContentType: exportsvc.ContentTypePDF, wantFilename: `attachment; filename="timetable.pdf"`},
		{name: "unknown format", query: "?format=csv", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/timetable/export"+tt.query, f.kidToken)
			f.srv.ServeHTTP(rec, req)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				ok, err := jsonBytesEqual(rec.Body.Bytes(), marshallObj(t, map[string]string{"format": "must be one of xlsx or pdf"}))
				require.NoError(t, err)
				assert.True(t, ok, rec.Body.String())
				return
			}
			assert.Equal(t, tt.wantContentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantFilename, rec.Header().Get("Content-Disposition"))
			assert.NotZero(t, rec.Body.Len())
		})
	}
}
