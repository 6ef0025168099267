package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/pkg/jobs"
	"github.com/noah-isme/coursehub-api/pkg/mailer"
)

// Email template names, also used as job types and metric labels.
const (
	TemplateEnrollmentConfirmation = "enrollment_confirmation"
	TemplatePaymentReceipt         = "payment_receipt"
	TemplateContactNotification    = "contact_notification"
)

var emailSubjects = map[string]string{
	TemplateEnrollmentConfirmation: "Anmeldebestätigung: %s",
	TemplatePaymentReceipt:         "Zahlungsbestätigung: %s",
	TemplateContactNotification:    "Kontaktanfrage: %s",
}

var compiledEmails = compileEmailTemplates()

func compileEmailTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(emailSubjects))
	for name := range emailSubjects {
		t := template.Must(emailTemplates.Clone())
		template.Must(t.New("body").Parse(`{{template "` + name + `" .}}`))
		out[name] = t
	}
	return out
}

// EnrollmentEmail feeds the enrollment confirmation template.
type EnrollmentEmail struct {
	To            mailer.Address
	Name          string
	CourseTitle   string
	ScheduleLabel string
	Location      string
	DashboardURL  string
}

// ReceiptEmail feeds the payment receipt template.
type ReceiptEmail struct {
	To            mailer.Address
	Name          string
	CourseTitle   string
	Amount        string
	PaymentMethod string
	PaidAt        string
	ReceiptNumber string
	DownloadURL   string
	Attachment    *mailer.Attachment
}

// ContactEmail feeds the contact notification template.
type ContactEmail struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type emailQueue interface {
	Enqueue(job jobs.Job) error
}

// EmailServiceConfig carries sender-independent settings.
type EmailServiceConfig struct {
	ContactInbox string
	SellerName   string
	BaseURL      string
}

type emailView struct {
	Subject string
	Seller  string
	Data    interface{}
}

// EmailService renders the transactional templates and hands them to the
// delivery queue. Every send is best-effort: callers never fail because an
// email could not go out.
type EmailService struct {
	sender  mailer.Sender
	queue   emailQueue
	config  EmailServiceConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewEmailService constructs the dispatcher. Without a queue messages are sent inline.
func NewEmailService(sender mailer.Sender, metrics *MetricsService, logger *zap.Logger, cfg EmailServiceConfig) *EmailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = mailer.Disabled(logger)
	}
	if cfg.SellerName == "" {
		cfg.SellerName = "CourseHub"
	}
	return &EmailService{sender: sender, config: cfg, metrics: metrics, logger: logger}
}

// UseQueue routes future messages through q.
func (s *EmailService) UseQueue(q emailQueue) {
	s.queue = q
}

// SendEnrollmentConfirmation notifies a user about a new enrollment.
func (s *EmailService) SendEnrollmentConfirmation(ctx context.Context, data EnrollmentEmail) error {
	if data.DashboardURL == "" && s.config.BaseURL != "" {
		data.DashboardURL = s.config.BaseURL + "/dashboard"
	}
	msg, err := s.render(TemplateEnrollmentConfirmation, data.CourseTitle, data)
	if err != nil {
		return err
	}
	msg.To = []mailer.Address{data.To}
	msg.Text = fmt.Sprintf("Hallo %s,\n\nvielen Dank für Ihre Anmeldung zum Kurs %s.\n%s\n", data.Name, data.CourseTitle, data.ScheduleLabel)
	return s.dispatch(ctx, TemplateEnrollmentConfirmation, msg)
}

// SendPaymentReceipt sends the receipt for a completed payment.
func (s *EmailService) SendPaymentReceipt(ctx context.Context, data ReceiptEmail) error {
	msg, err := s.render(TemplatePaymentReceipt, data.CourseTitle, data)
	if err != nil {
		return err
	}
	msg.To = []mailer.Address{data.To}
	msg.Text = fmt.Sprintf("Hallo %s,\n\nwir haben Ihre Zahlung über %s für %s erhalten.\nZahlungsart: %s\nDatum: %s\n",
		data.Name, data.Amount, data.CourseTitle, data.PaymentMethod, data.PaidAt)
	if data.DownloadURL != "" {
		msg.Text += "Beleg: " + data.DownloadURL + "\n"
	}
	if data.Attachment != nil {
		msg.Attachments = []mailer.Attachment{*data.Attachment}
	}
	return s.dispatch(ctx, TemplatePaymentReceipt, msg)
}

// SendContactNotification forwards a contact form message to the inbox.
func (s *EmailService) SendContactNotification(ctx context.Context, data ContactEmail) error {
	if s.config.ContactInbox == "" {
		s.logger.Warn("contact inbox not configured, dropping message", zap.String("from", data.Email))
		s.metrics.RecordEmail(TemplateContactNotification, "skipped")
		return mailer.ErrDisabled
	}
	subject := data.Subject
	if strings.TrimSpace(subject) == "" {
		subject = data.Name
	}
	msg, err := s.render(TemplateContactNotification, subject, data)
	if err != nil {
		return err
	}
	msg.To = []mailer.Address{{Email: s.config.ContactInbox}}
	msg.ReplyTo = &mailer.Address{Name: data.Name, Email: data.Email}
	msg.Text = fmt.Sprintf("Von: %s <%s>\nBetreff: %s\n\n%s\n", data.Name, data.Email, data.Subject, data.Message)
	return s.dispatch(ctx, TemplateContactNotification, msg)
}

// Deliver is the queue handler. Messages the provider can never accept are
// dropped without retry.
func (s *EmailService) Deliver(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		s.logger.Error("unexpected email job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	err := s.sender.Send(ctx, msg)
	switch {
	case err == nil:
		s.metrics.RecordEmail(job.Type, "sent")
		s.logger.Info("email sent", zap.String("template", job.Type), zap.String("provider", s.sender.Name()), zap.Int("attempt", job.Attempt))
		return nil
	case errors.Is(err, mailer.ErrDisabled):
		s.metrics.RecordEmail(job.Type, "skipped")
		return nil
	default:
		s.logger.Warn("email delivery failed", zap.String("template", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))
		return err
	}
}

// OnExhausted records an email that ran out of retries.
func (s *EmailService) OnExhausted(job jobs.Job, err error) {
	s.metrics.RecordEmail(job.Type, "failed")
	s.logger.Error("email dropped after retries", zap.String("template", job.Type), zap.String("job_id", job.ID), zap.Error(err))
}

func (s *EmailService) render(name, subjectArg string, data interface{}) (mailer.Message, error) {
	tmpl, ok := compiledEmails[name]
	if !ok {
		return mailer.Message{}, fmt.Errorf("unknown email template %q", name)
	}
	subject := fmt.Sprintf(emailSubjects[name], subjectArg)
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", emailView{Subject: subject, Seller: s.config.SellerName, Data: data}); err != nil {
		return mailer.Message{}, fmt.Errorf("render %s: %w", name, err)
	}
	return mailer.Message{Subject: subject, HTML: buf.String()}, nil
}

func (s *EmailService) dispatch(ctx context.Context, name string, msg mailer.Message) error {
	if err := msg.Validate(); err != nil {
		s.metrics.RecordEmail(name, "invalid")
		return err
	}
	if s.queue == nil {
		return s.Deliver(ctx, jobs.Job{Type: name, Payload: msg})
	}
	if err := s.queue.Enqueue(jobs.Job{Type: name, Payload: msg}); err != nil {
		s.metrics.RecordEmail(name, "dropped")
		s.logger.Warn("email not queued", zap.String("template", name), zap.Error(err))
		return err
	}
	s.metrics.RecordEmail(name, "queued")
	return nil
}

func mailerAddress(name, email string) mailer.Address {
	return mailer.Address{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
}
