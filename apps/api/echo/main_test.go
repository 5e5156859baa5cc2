package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func setup(t *testing.T) (*Server, *testutil.Env) {
	env := testutil.NewEnv()
	validate, translator := testutil.NewValidator()

	srv := NewServer(
		ServerDeps{
			Conf:         testutil.NewConfig(),
			Logger:       testutil.NewLogger(),
			UserSvc:      env.UserSvc,
			TimetableSvc: env.TimetableSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)
	return srv, env
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, srv *Server, usr user.User) string {
	token, err := srv.auth.generateToken(srv.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshall() failed: %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCode(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	checkCode(t, tt, rec)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv *Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			if tt.wantData == nil {
				checkCode(t, tt, rec)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_home(t *testing.T) {
	srv, _ := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "Welcome to Ratiba API!" {
		t.Errorf("failed! body = %q", rec.Body.String())
	}
}
