package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shafisadique/school-project-sub003/core"
	"github.com/shafisadique/school-project-sub003/core/auth"
	"github.com/shafisadique/school-project-sub003/core/school"
	"github.com/shafisadique/school-project-sub003/core/superadmin"
	"github.com/shafisadique/school-project-sub003/core/user"
	appfs "github.com/shafisadique/school-project-sub003/fs"
	"github.com/shafisadique/school-project-sub003/services/email"
	"github.com/shafisadique/school-project-sub003/services/ratelimit"
	"github.com/shafisadique/school-project-sub003/storage/database/inmem"
	"github.com/shafisadique/school-project-sub003/testutil"
)

const (
	pwd    = "Sup3r-Secret!"
	saPwd  = "very-long-superadmin-pwd"
	newPwd = "N3w-Passw0rd!"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// testApp is a fully wired server over the in-memory storage.
type testApp struct {
	conf    *core.Config
	srv     *Server
	clock   *testutil.Clock
	logger  *testutil.Logger
	mailSvc *emailsvc.ConsoleServiceMock
	metrics *Metrics

	usersDomain *auth.Domain
	saDomain    *auth.Domain

	usrRepo    user.Repository
	saRepo     superadmin.Repository
	schoolRepo school.Repository

	school  school.School
	admin   user.User
	teacher user.User
	sa      superadmin.Superadmin
}

func newTestApp(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	clock := testutil.MockClock(t, t0)

	tmpls, err := core.ParseEmailTemplates(appfs.FS, conf.FrontendBaseURL, true)
	require.NoError(t, err)

	usersDomain, err := auth.NewUsersDomain(conf)
	require.NoError(t, err)
	saDomain, err := auth.NewSuperadminDomain(conf)
	require.NoError(t, err)

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	db := inmemdb.Open()
	logger := &testutil.Logger{}
	app := &testApp{
		conf:        conf,
		clock:       clock,
		logger:      logger,
		mailSvc:     emailsvc.NewConsoleServiceMock(conf, tmpls, logger),
		metrics:     NewMetrics(),
		usersDomain: usersDomain,
		saDomain:    saDomain,
		usrRepo:     inmemdb.NewUserRepository(db),
		saRepo:      inmemdb.NewSuperadminRepository(db),
		schoolRepo:  inmemdb.NewSchoolRepository(db),
	}

	app.srv = NewServer(ServerDeps{
		Conf:             conf,
		Logger:           logger,
		UsersDomain:      usersDomain,
		SuperadminDomain: saDomain,
		UserSvc:          user.NewService(app.usrRepo, app.mailSvc, conf),
		SuperadminSvc:    superadmin.NewService(app.saRepo),
		SchoolSvc:        school.NewService(app.schoolRepo),
		Limiter:          ratelimit.NewMemoryLimiter(conf.RateLimit),
		Metrics:          app.metrics,
		Validate:         validate,
		Translator:       translator,
		DisableReqLogs:   true,
	})
	t.Cleanup(func() { _ = app.srv.Close() })

	app.school = testutil.CreateSchool(t, app.schoolRepo, "Greenfield", school.PlanStandard, true)
	app.admin = testutil.CreateUser(t, app.usrRepo, app.school.ID, "Ada Admin", "ada", "ada@example.com", pwd, auth.RoleAdmin, true)
	app.teacher = testutil.CreateUser(t, app.usrRepo, app.school.ID, "Tom Teacher", "tom", "tom@example.com", pwd, auth.RoleTeacher, true)
	app.sa = testutil.CreateSuperadmin(t, app.saRepo, "Root", "root@example.com", saPwd)
	return app
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	headers  map[string]string
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

func (app *testApp) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	for k, v := range tt.headers {
		req.Header.Set(k, v)
	}
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func (app *testApp) userToken(t *testing.T, usr user.User) string {
	token, _, err := app.usersDomain.Issue(usr.Subject())
	require.NoError(t, err)
	return token
}

func (app *testApp) superadminToken(t *testing.T) string {
	token, _, err := app.saDomain.Issue(app.sa.Subject())
	require.NoError(t, err)
	return token
}

func (app *testApp) masterKeyHeaders() map[string]string {
	return map[string]string{headerMasterKey: app.conf.MasterKey, headerDeviceFp: app.conf.DeviceFingerprint}
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func errResp(t *testing.T, msg string, fields ...map[string]string) []byte {
	resp := ErrorResponse{Success: false, Message: msg}
	if len(fields) > 0 {
		resp.Errors = fields[0]
	}
	return marshallObj(t, resp)
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

// checkCodeAndData compares the body only when wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v (body %s)", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
