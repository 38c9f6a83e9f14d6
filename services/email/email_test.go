package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shafisadique/school-project-sub003/core"
	appfs "github.com/shafisadique/school-project-sub003/fs"
	"github.com/shafisadique/school-project-sub003/testutil"
)

type resetData struct {
	Name      string
	Token     string
	ExpiresIn string
}

func newMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "John Doe", Address: "jdoe@example.com"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: resetData{Name: "John Doe", Token: "tok3n", ExpiresIn: "30 minutes"},
	}
}

func setup(t *testing.T) (*core.Config, *core.EmailTemplates) {
	conf := core.NewTestConfig()
	tmpls, err := core.ParseEmailTemplates(appfs.FS, conf.FrontendBaseURL, true)
	require.NoError(t, err)
	return conf, tmpls
}

func TestConsoleServiceMock(t *testing.T) {
	conf, tmpls := setup(t)
	logger := &testutil.Logger{}
	svc := NewConsoleServiceMock(conf, tmpls, logger)

	svc.SendMessages(
		newMessage(),
		&core.EmailMessage{Subject: "no recipients", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, TemplateName: "unknown"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, "Hello John Doe,")
	assert.Contains(t, sent[0].TextContent, "http://localhost:4200/reset-password?token=tok3n")
	assert.Contains(t, sent[0].HTMLContent, `href="http://localhost:4200/reset-password?token=tok3n"`)
	assert.Len(t, logger.Entries("error"), 1, "unknown template is logged")

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestConsoleService_Format(t *testing.T) {
	conf, tmpls := setup(t)
	svc := NewConsoleServiceMock(conf, tmpls, &testutil.Logger{})

	msg := newMessage()
	require.NoError(t, msg.Render(tmpls))
	body, err := svc.format(*msg)
	require.NoError(t, err)
	assert.Contains(t, body, `From: "Shule" <noreply@localhost>`)
	assert.Contains(t, body, "Subject: [Shule] Password Reset")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/html")
}

func TestSendgridService(t *testing.T) {
	conf, tmpls := setup(t)
	conf.SendgridApiKey = "SG.test"
	logger := &testutil.Logger{}
	svc := NewSendgridService(conf, tmpls, logger).(*sendgridService)

	msg := newMessage()
	require.NoError(t, msg.Render(tmpls))
	m := svc.prepare(*msg)
	assert.Equal(t, "[Shule] Password Reset", m.Personalizations[0].Subject)
	assert.Equal(t, "jdoe@example.com", m.Personalizations[0].To[0].Address)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)

	var sent []rest.Request
	origSend := sendFunc
	defer func() { sendFunc = origSend }()
	sendFunc = func(req rest.Request) (*rest.Response, error) {
		sent = append(sent, req)
		return &rest.Response{StatusCode: 400, Body: "bad request"}, nil
	}

	svc.send(*msg)
	require.Len(t, sent, 1)
	assert.Equal(t, "Bearer SG.test", sent[0].Headers["Authorization"])
	assert.Len(t, logger.Entries("error"), 1, "4xx responses are logged")
}

func TestNewService(t *testing.T) {
	conf, tmpls := setup(t)
	assert.IsType(t, &consoleService{}, NewService(conf, tmpls, &testutil.Logger{}))

	conf.SendgridApiKey = "SG.test"
	assert.IsType(t, &sendgridService{}, NewService(conf, tmpls, &testutil.Logger{}))
}
