// internal/services/notification_service_test.go
package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/models"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func TestNewMailerFallsBackToLogging(t *testing.T) {
	assert.IsType(t, LogMailer{}, NewMailer(config.EmailConfig{}))
	assert.IsType(t, &SMTPMailer{}, NewMailer(config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587}))
	assert.NoError(t, LogMailer{}.Send("a@example.com", "hi", "<p>hi</p>"))
}

func TestSendReminder(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer)

	reminder := &models.Reminder{
		Title:    "Renew <licence>",
		Note:     "Office suite",
		Email:    "ops@example.com",
		RemindAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, svc.SendReminder(reminder))
	require.Len(t, mailer.sent, 1)

	mail := mailer.sent[0]
	assert.Equal(t, "ops@example.com", mail.To)
	assert.Equal(t, "Reminder: Renew <licence>", mail.Subject)
	assert.True(t, strings.Contains(mail.Body, "Renew &lt;licence&gt;"), "title is escaped in the body")
	assert.True(t, strings.Contains(mail.Body, "2026-03-01 09:30 UTC"))
}

func TestSendReminderWithoutRecipient(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer)

	err := svc.SendReminder(&models.Reminder{BaseModel: models.BaseModel{ID: uuid.New()}, Title: "x"})
	assert.Error(t, err)
	assert.Empty(t, mailer.sent)
}

func TestSendWFHReviewed(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(mailer)

	user := &models.User{Name: "Dana", Email: "dana@example.com"}
	record := &models.WorkFromHome{Date: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), Status: models.WFHStatusApproved}
	require.NoError(t, svc.SendWFHReviewed(user, record))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "dana@example.com", mailer.sent[0].To)
	assert.True(t, strings.Contains(mailer.sent[0].Body, "2026-05-04 was approved"))

	mailer.err = errors.New("relay refused")
	assert.Error(t, svc.SendWFHReviewed(user, record))
}
