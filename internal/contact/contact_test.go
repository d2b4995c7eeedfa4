package contact

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
	"github.com/localwire/portal/internal/model"
	"github.com/localwire/portal/internal/repository"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type memRepo struct {
	mu       sync.Mutex
	messages []model.Message
}

func (m *memRepo) AddMessage(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memRepo) GetMessage(_ context.Context, id string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			return &msg, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memRepo) GetMessages(_ context.Context) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Message(nil), m.messages...), nil
}

func newTestDispatcher(mail EmailSender, repo repository.Repository) *Dispatcher {
	cfg := config.Contact{
		SupportEmail:   "support@localwire.example",
		WhatsAppNumber: "918072888085",
	}

	return &Dispatcher{
		cfg:  cfg,
		mail: mail,
		repo: repo,
		log:  zap.NewNop(),
		now:  func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func Test_DetectChannel(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		contact string
		want    Channel
	}{
		{"ann@example.com", ChannelEmail},
		{"9876543210", ChannelWhatsApp},
		{"+91 98765 43210", ChannelWhatsApp},
		{"(987) 654-3210 123", ChannelWhatsApp},
		{"12345", ChannelUnknown},       // too short for a phone number
		{"1234567890123456", ChannelUnknown}, // too long
		{"not-a-contact", ChannelUnknown},
		{"", ChannelUnknown},
	}
	for _, tt := range tests {
		assert.Equal(tt.want, DetectChannel(tt.contact), "contact %q", tt.contact)
	}
}

func Test_Dispatch_email(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mail := &fakeSender{}
	repo := &memRepo{}
	d := newTestDispatcher(mail, repo)

	out, err := d.Dispatch(context.Background(), Form{
		Name:    "Ann",
		Contact: "ann@example.com",
		Message: "My connection is down.",
	})
	require.NoError(err)

	assert.Equal(ChannelEmail, out.Channel)
	assert.NotEmpty(out.Ref)
	assert.Empty(out.RedirectURL)

	require.Len(mail.sent, 1)
	assert.Equal("support@localwire.example", mail.sent[0].to)
	assert.Contains(mail.sent[0].body, "Ann")
	assert.Contains(mail.sent[0].body, "My connection is down.")

	stored, err := repo.GetMessage(context.Background(), out.Ref)
	require.NoError(err)
	assert.Equal("email", stored.Channel)
}

func Test_Dispatch_whatsapp(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	mail := &fakeSender{}
	repo := &memRepo{}
	d := newTestDispatcher(mail, repo)

	out, err := d.Dispatch(context.Background(), Form{
		Name:    "Ann",
		Contact: "+91 98765 43210",
		Message: "Upgrade my plan please",
	})
	require.NoError(err)

	assert.Equal(ChannelWhatsApp, out.Channel)
	assert.True(strings.HasPrefix(out.RedirectURL, "https://wa.me/918072888085?text="), out.RedirectURL)
	assert.Empty(mail.sent, "whatsapp submissions must not send email")

	stored, err := repo.GetMessage(context.Background(), out.Ref)
	require.NoError(err)
	assert.Equal("whatsapp", stored.Channel)
}

func Test_Dispatch_unknownChannel(t *testing.T) {
	assert := assert.New(t)

	d := newTestDispatcher(&fakeSender{}, &memRepo{})

	_, err := d.Dispatch(context.Background(), Form{
		Name:    "Ann",
		Contact: "neither",
		Message: "hello",
	})
	assert.ErrorIs(err, ErrUnknownChannel)
}

func Test_Dispatch_validation(t *testing.T) {
	assert := assert.New(t)

	d := newTestDispatcher(&fakeSender{}, &memRepo{})

	_, err := d.Dispatch(context.Background(), Form{Contact: "ann@example.com", Message: "hi"})
	assert.Error(err, "missing name must be rejected")

	_, err = d.Dispatch(context.Background(), Form{Name: "Ann", Contact: "ann@example.com"})
	assert.Error(err, "missing message must be rejected")
}

func Test_Dispatch_emailFailure(t *testing.T) {
	assert := assert.New(t)

	repo := &memRepo{}
	d := newTestDispatcher(&fakeSender{err: errors.New("smtp down")}, repo)

	_, err := d.Dispatch(context.Background(), Form{
		Name:    "Ann",
		Contact: "ann@example.com",
		Message: "hello",
	})
	assert.Error(err)
	assert.Empty(repo.messages, "undelivered submissions are not recorded")
}

func Test_WhatsAppURL(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	raw := WhatsAppURL("+918072888085", "Ann", "ann@example.com", "Need help & fast")

	u, err := url.Parse(raw)
	require.NoError(err)
	assert.Equal("wa.me", u.Host)
	assert.Equal("/918072888085", u.Path, "the plus prefix is stripped")

	text := u.Query().Get("text")
	assert.Contains(text, "Ann")
	assert.Contains(text, "ann@example.com")
	assert.Contains(text, "Need help & fast")
}
