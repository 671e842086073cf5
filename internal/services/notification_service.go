// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/models"
)

// Mailer delivers one HTML e-mail.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends through the configured SMTP relay.
type SMTPMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.from, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return m.dialer.DialAndSend(msg)
}

// LogMailer only logs, for environments without SMTP.
type LogMailer struct{}

func (LogMailer) Send(to, subject, _ string) error {
	logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email not sent, SMTP is not configured")
	return nil
}

// NewMailer picks the SMTP mailer when a host is configured.
func NewMailer(cfg config.EmailConfig) Mailer {
	if cfg.SMTPHost == "" {
		return LogMailer{}
	}
	return &SMTPMailer{
		dialer:   gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:     cfg.FromEmail,
		fromName: cfg.FromName,
	}
}

type NotificationService struct {
	mailer Mailer
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(mailer Mailer) *NotificationService {
	return &NotificationService{mailer: mailer}
}

func (s *NotificationService) SendReminder(reminder *models.Reminder) error {
	if reminder.Email == "" {
		return fmt.Errorf("reminder %s has no recipient", reminder.ID)
	}

	tmpl := s.getEmailTemplate("reminder")
	body, err := s.renderTemplate(tmpl.Body, map[string]interface{}{
		"Title":    reminder.Title,
		"Note":     reminder.Note,
		"RemindAt": reminder.RemindAt.Format("2006-01-02 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.mailer.Send(reminder.Email, tmpl.Subject+": "+reminder.Title, body)
}

func (s *NotificationService) SendWFHReviewed(user *models.User, record *models.WorkFromHome) error {
	tmpl := s.getEmailTemplate("wfh_reviewed")
	body, err := s.renderTemplate(tmpl.Body, map[string]interface{}{
		"Name":   user.Name,
		"Date":   record.Date.Format("2006-01-02"),
		"Status": string(record.Status),
	})
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.mailer.Send(user.Email, tmpl.Subject, body)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"reminder": {
			Subject: "Reminder",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>{{.Title}}</h2>
	<p>{{.Note}}</p>
	<p>Scheduled for {{.RemindAt}}.</p>
</body>
</html>`,
		},
		"wfh_reviewed": {
			Subject: "Work-from-home request reviewed",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<p>Hello {{.Name}},</p>
	<p>Your work-from-home request for {{.Date}} was {{.Status}}.</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
