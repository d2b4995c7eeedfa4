package contact

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
	"github.com/localwire/portal/internal/model"
	"github.com/localwire/portal/internal/repository"
)

// Channel is the delivery route picked for a contact request.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelUnknown  Channel = ""
)

// ErrUnknownChannel means the contact field is neither a usable email
// address nor a phone number. Surfaced inline near the form field.
var ErrUnknownChannel = errors.New("please enter a valid phone number or email")

var (
	nonDigits  = regexp.MustCompile(`\D`)
	phoneShape = regexp.MustCompile(`^\d{10,15}$`)
)

// DetectChannel classifies the contact field: an email address goes out
// via email, a 10-15 digit phone number via WhatsApp.
func DetectChannel(contact string) Channel {
	if is.Email.Validate(contact) == nil {
		return ChannelEmail
	}
	if phoneShape.MatchString(nonDigits.ReplaceAllString(contact, "")) {
		return ChannelWhatsApp
	}
	return ChannelUnknown
}

// Form is a contact page submission.
type Form struct {
	Name    string
	Contact string
	Message string
}

func (f Form) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Contact, validation.Required, validation.Length(3, 200)),
		validation.Field(&f.Message, validation.Required, validation.Length(1, 5000)),
	)
}

// Outcome describes how a submission was delivered. For WhatsApp the
// caller redirects the browser to the click-to-chat URL.
type Outcome struct {
	Channel     Channel
	Ref         string
	RedirectURL string
}

// EmailSender delivers a message to the support mailbox.
type EmailSender interface {
	Send(to, subject, body string) error
}

type smtpSender struct {
	addr string
	from string
}

func (s *smtpSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body)
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

// Recorder counts delivered messages, by channel.
type Recorder interface {
	RecordContact(channel string)
}

// Dispatcher routes validated contact submissions to their delivery
// channel and records them.
type Dispatcher struct {
	cfg  config.Contact
	mail EmailSender
	repo repository.Repository
	rec  Recorder
	log  *zap.Logger
	now  func() time.Time
}

type DispatcherParams struct {
	fx.In

	Config   *config.Config
	Log      *zap.Logger
	Repo     repository.Repository
	Recorder Recorder    `optional:"true"`
	Mail     EmailSender `optional:"true"`
}

func NewDispatcher(p DispatcherParams) *Dispatcher {
	mail := p.Mail
	if mail == nil {
		mail = &smtpSender{addr: p.Config.Contact.SMTPAddr, from: p.Config.Contact.SMTPFrom}
	}

	return &Dispatcher{
		cfg:  p.Config.Contact,
		mail: mail,
		repo: p.Repo,
		rec:  p.Recorder,
		log:  p.Log,
		now:  time.Now,
	}
}

// Dispatch validates the form, picks the channel, delivers, and records
// the message.
func (d *Dispatcher) Dispatch(ctx context.Context, f Form) (*Outcome, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	channel := DetectChannel(f.Contact)
	if channel == ChannelUnknown {
		return nil, ErrUnknownChannel
	}

	out := &Outcome{
		Channel: channel,
		Ref:     uuid.NewString(),
	}

	switch channel {
	case ChannelEmail:
		body := fmt.Sprintf("Name: %s\nEmail: %s\nSent: %s\n\n%s",
			f.Name, f.Contact, d.now().Format(time.RFC1123), f.Message)
		if err := d.mail.Send(d.cfg.SupportEmail, "New Contact Request", body); err != nil {
			d.log.Error("contact email delivery failed", zap.String("ref", out.Ref), zap.Error(err))
			return nil, fmt.Errorf("send contact email: %w", err)
		}
	case ChannelWhatsApp:
		out.RedirectURL = WhatsAppURL(d.cfg.WhatsAppNumber, f.Name, f.Contact, f.Message)
	}

	d.record(ctx, f, out)
	return out, nil
}

func (d *Dispatcher) record(ctx context.Context, f Form, out *Outcome) {
	if d.rec != nil {
		d.rec.RecordContact(string(out.Channel))
	}

	msg := &model.Message{
		ID:      out.Ref,
		Name:    f.Name,
		Contact: f.Contact,
		Channel: string(out.Channel),
		Body:    f.Message,
		SentAt:  d.now(),
	}
	if err := d.repo.AddMessage(ctx, msg); err != nil {
		// delivery already happened, keep going
		d.log.Warn("failed recording contact message", zap.String("ref", out.Ref), zap.Error(err))
	}
}

// WhatsAppURL builds the wa.me click-to-chat link for a submission.
func WhatsAppURL(number, name, contact, body string) string {
	text := fmt.Sprintf("Hello, I am %s (Email/Phone: %s).\n\n%s", name, contact, body)
	return "https://wa.me/" + strings.TrimPrefix(number, "+") + "?text=" + url.QueryEscape(text)
}
