package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	echoapi "github.com/shafisadique/school-project-sub003/apps/api/echo"
	"github.com/shafisadique/school-project-sub003/client"
	"github.com/shafisadique/school-project-sub003/client/session"
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

const pwd = "Sup3r-Secret!"

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// backend is the real API server over the in-memory storage, listening on a local port.
type backend struct {
	conf    *core.Config
	srv     *httptest.Server
	clock   *testutil.Clock
	mailSvc *emailsvc.ConsoleServiceMock
	usrRepo user.Repository

	admin   user.User
	teacher user.User
}

func newBackend(t *testing.T) *backend {
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
	b := &backend{
		conf:    conf,
		clock:   clock,
		mailSvc: emailsvc.NewConsoleServiceMock(conf, tmpls, logger),
		usrRepo: inmemdb.NewUserRepository(db),
	}
	schoolRepo := inmemdb.NewSchoolRepository(db)
	saRepo := inmemdb.NewSuperadminRepository(db)

	api := echoapi.NewServer(echoapi.ServerDeps{
		Conf:             conf,
		Logger:           logger,
		UsersDomain:      usersDomain,
		SuperadminDomain: saDomain,
		UserSvc:          user.NewService(b.usrRepo, b.mailSvc, conf),
		SuperadminSvc:    superadmin.NewService(saRepo),
		SchoolSvc:        school.NewService(schoolRepo),
		Limiter:          ratelimit.NewMemoryLimiter(conf.RateLimit),
		Validate:         validate,
		Translator:       translator,
		DisableReqLogs:   true,
	})
	b.srv = httptest.NewServer(api)
	t.Cleanup(func() {
		b.srv.Close()
		_ = api.Close()
	})

	sch := testutil.CreateSchool(t, schoolRepo, "Greenfield", school.PlanStandard, true)
	b.admin = testutil.CreateUser(t, b.usrRepo, sch.ID, "Ada Admin", "ada", "ada@example.com", pwd, auth.RoleAdmin, true)
	b.teacher = testutil.CreateUser(t, b.usrRepo, sch.ID, "Tom Teacher", "tom", "tom@example.com", pwd, auth.RoleTeacher, true)
	testutil.CreateSuperadmin(t, saRepo, "Root", "root@example.com", "very-long-superadmin-pwd")
	return b
}

// fakeNavigator records the login redirects the transport asks for.
type fakeNavigator struct {
	current   string
	redirects []string
}

func (n *fakeNavigator) CurrentPath() string { return n.current }

func (n *fakeNavigator) RedirectToLogin(_ context.Context, returnURL string) error {
	n.redirects = append(n.redirects, returnURL)
	n.current = "/login"
	return nil
}

type clientFixture struct {
	client  *client.Client
	store   *session.Store
	nav     *fakeNavigator
	notices *client.NoticeLog
}

func newClient(t *testing.T, baseURL string, base http.RoundTripper) *clientFixture {
	store, err := session.NewStore(nil)
	require.NoError(t, err)
	f := &clientFixture{store: store, nav: &fakeNavigator{current: "/dashboard"}, notices: &client.NoticeLog{}}
	f.client, err = client.New(client.Options{
		BaseURL:   baseURL,
		Store:     store,
		Navigator: f.nav,
		Notifier:  f.notices,
		Logger:    &testutil.Logger{},
		Base:      base,
	})
	require.NoError(t, err)
	return f
}
