package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"

	"nexconsult/internal/config"
	"nexconsult/internal/logger"
	"nexconsult/internal/models"
	"nexconsult/web/templates"
)

// Mailer sends the staff notification and submitter confirmation emails
// over plain SMTP. When SMTP is unconfigured every send is logged and
// skipped, never an error, so mail problems cannot fail a consultation.
type Mailer struct {
	cfg *config.Config
	// send is swappable under test; defaults to smtp.SendMail
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New creates a mailer from the application config.
func New(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// StaffEmail holds everything the staff notification template renders.
type StaffEmail struct {
	Nome        string
	Email       string
	Telefone    string
	Mensagem    string
	Data        *models.CNPJData
	Score       models.ScoreResult
	DownloadURL string
}

// ConfirmationEmail holds the submitter confirmation template data.
type ConfirmationEmail struct {
	Nome  string
	Score models.ScoreResult
}

// SendStaffNotification emails the enriched consultation to the staff
// address.
func (m *Mailer) SendStaffNotification(data StaffEmail) {
	if m.cfg.MailStaff == "" {
		logger.Debug("Staff email skipped, MAIL_STAFF not configured")
		return
	}
	subject := fmt.Sprintf("Nova consultoria: %s", data.Nome)
	if data.Data != nil && data.Data.RazaoSocial != "" {
		subject = fmt.Sprintf("Nova consultoria: %s (%s)", data.Data.RazaoSocial, data.Score.Classificacao)
	}
	m.deliver(m.cfg.MailStaff, subject, "email_staff.html", data)
}

// SendConfirmation emails the submitter an acknowledgement.
func (m *Mailer) SendConfirmation(to string, data ConfirmationEmail) {
	m.deliver(to, "Recebemos sua solicitação de consultoria", "email_confirmacao.html", data)
}

// deliver renders one embedded template and hands it to SMTP. Failures are
// logged, never surfaced: email is best effort.
func (m *Mailer) deliver(to, subject, template string, data any) {
	if m.cfg.SMTPHost == "" {
		logger.Info("Email skipped, SMTP not configured", "to", to, "subject", subject)
		return
	}

	var body bytes.Buffer
	if err := templates.Templates.ExecuteTemplate(&body, template, data); err != nil {
		logger.Error("Failed to render email template", "template", template, "error", err)
		return
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.MailFrom + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	if err := m.send(addr, auth, m.cfg.MailFrom, []string{to}, []byte(msg.String())); err != nil {
		logger.Error("Failed to send email", "to", to, "subject", subject, "error", err)
		return
	}
	logger.Info("Email sent", "to", to, "subject", subject)
}
