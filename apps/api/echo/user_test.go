package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/tests"
)

func Test_userApi_login(t *testing.T) {
	srv, env := setup(t)

	testutil.CreateUser(t, env.UserRepo, "Jane", "jane", core.RoleTeacher, true)
	testutil.CreateUser(t, env.UserRepo, "Pending", "pending", core.RoleTeacher, false)
	testutil.CreateUser(t, env.UserRepo, "Kid", "kid", core.RoleStudent, false)

	login := func(uname, pwd string) []byte {
		return marshallObj(t, LoginRequest{Username: uname, Password: pwd})
	}
	badCreds := marshallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{name: "unknown user", body: login("nobody", testutil.Password), wantCode: http.StatusBadRequest, wantData: badCreds},
		{name: "wrong password", body: login("jane", "nope"), wantCode: http.StatusBadRequest, wantData: badCreds},
		{
			name: "pending teacher", body: login("pending", testutil.Password), wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account pending approval"}),
		},
		{name: "teacher", body: login(" JANE ", testutil.Password), wantCode: http.StatusOK},
		{name: "student needs no approval", body: login("kid", testutil.Password), wantCode: http.StatusOK},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/login"
	}
	runHTTPTests(t, srv, tests)

	t.Run("token works", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", login("jane", testutil.Password))
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		unmarshall(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		req, rec = newAuthRequest(http.MethodGet, "/v1/users/me", resp.Token)
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var me user.User
		unmarshall(t, rec, &me)
		assert.Equal(t, "jane", me.Username)
		assert.False(t, me.LastLogin.IsZero())
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	srv, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Jane", "jane", core.RoleStudent, true)

	expired := srv.auth.userClaims(usr, time.Now().Add(-5*time.Hour).Unix())
	expiredToken, err := srv.auth.generateToken(expired)
	require.NoError(t, err)

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "bad token", token: "lol", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, httpErr{Error: "invalid or expired jwt"})},
		{
			name: "refresh window over", token: expiredToken, wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "refresh", token: getToken(t, srv, usr), wantCode: http.StatusOK},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/token-refresh"
	}
	runHTTPTests(t, srv, tests)
}

func Test_userApi_updateLunchBreak(t *testing.T) {
	srv, env := setup(t)

	teacher := testutil.CreateTeacher(t, env.UserRepo, "Jane", "jane", timetable.LunchConfig{})
	student := testutil.CreateUser(t, env.UserRepo, "Kid", "kid", core.RoleStudent, true)
	_, err := env.TimetableSvc.Create(context.Background(), teacher.Identity(), timetable.NewEntry{Subject: "Math", Day: "Monday", StartTime: "12:00", EndTime: "13:00"})
	require.NoError(t, err)

	path := "/v1/users/me/lunch-break"
	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{
			name: "teachers only", token: getToken(t, srv, student), body: []byte(`{"lunch_break_start": "12:00"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "bad format", token: getToken(t, srv, teacher), body: []byte(`{"lunch_break_start": "noon"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"error": "Invalid lunch break start time.", "kind": "InvalidTimeFormat"}),
		},
		{
			name: "bad range", token: getToken(t, srv, teacher), body: []byte(`{"lunch_break_start": "14:00", "lunch_break_end": "13:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"error": "Lunch break start must be before end.", "kind": "InvalidTimeRange"}),
		},
		{
			name: "over own lecture", token: getToken(t, srv, teacher), body: []byte(`{"lunch_break_start": "12:30", "lunch_break_end": "13:30"}`),
			wantCode: http.StatusConflict,
		},
		{
			name: "ok", token: getToken(t, srv, teacher),
			body:     []byte(`{"lunch_break_start": "13:00", "lunch_break_end": "14:00", "lunch_break_overrides": {"friday": {"start_time": "11:00", "end_time": "11:30"}}}`),
			wantCode: http.StatusOK,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPut
		tests[i].path = path
	}
	runHTTPTests(t, srv, tests)

	got, err := env.UserSvc.GetByID(context.Background(), teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, timetable.LunchConfig{
		Start:     "13:00",
		End:       "14:00",
		Overrides: map[string]timetable.Window{"Friday": {Start: "11:00", End: "11:30"}},
	}, got.LunchConfig)
}
