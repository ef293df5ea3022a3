package services

import (
	"fmt"
	"net/smtp"
	"strings"

	"api/config"
)

type EmailService struct {
	host     string
	port     string
	username string
	password string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     config.MailHost,
		port:     config.MailPort,
		username: config.MailUsername,
		password: config.MailPassword,
	}
}

func (s *EmailService) send(to string, msg []byte) error {
	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	return smtp.SendMail(s.host+":"+s.port, auth, s.username, []string{to}, msg)
}

func (s *EmailService) SendPasswordResetEmail(to, resetToken string) error {
	resetLink := fmt.Sprintf(config.ClientUrl+"/reset-password?token=%s", resetToken)

	htmlTemplate := strings.TrimSpace(`
To: %s
MIME-version: 1.0
Content-Type: text/html; charset="UTF-8"
Subject: Reset Your Inkwell Password

<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Reset Your Password</title>
</head>
<body style="background-color: #faf7f2; margin: 0; padding: 0; font-family: Georgia, serif;">
    <table width="100%%" cellpadding="0" cellspacing="0" style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <tr>
            <td style="background-color: #1f2933; padding: 40px 20px; text-align: center; border-radius: 8px;">
                <h1 style="color: #ffffff; margin-bottom: 30px; font-size: 24px;">Reset Your Password</h1>
                <p style="color: #9ca3af; margin-bottom: 30px; font-size: 16px;">Click the button below to reset your password. This link will expire in 1 hour.</p>
                <a href="%s" style="display: inline-block; background-color: #b45309; color: #ffffff; text-decoration: none; padding: 12px 30px; border-radius: 6px; font-weight: bold; margin-bottom: 30px;">Reset Password</a>
                <p style="color: #9ca3af; font-size: 14px;">If you didn't request this password reset, please ignore this email.</p>
            </td>
        </tr>
        <tr>
            <td style="text-align: center; padding-top: 20px;">
                <p style="color: #6b7280; font-size: 14px;">© 2026 Inkwell. All rights reserved.</p>
            </td>
        </tr>
    </table>
</body>
</html>
`)

	msg := []byte(fmt.Sprintf(htmlTemplate, to, resetLink))
	return s.send(to, msg)
}

func (s *EmailService) SendNewsletterConfirmationEmail(to, confirmToken string) error {
	confirmLink := fmt.Sprintf(config.ClientUrl+"/newsletter/confirm?token=%s", confirmToken)

	htmlTemplate := strings.TrimSpace(`
To: %s
MIME-version: 1.0
Content-Type: text/html; charset="UTF-8"
Subject: Confirm Your Inkwell Newsletter Subscription

<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Confirm Your Subscription</title>
</head>
<body style="background-color: #faf7f2; margin: 0; padding: 0; font-family: Georgia, serif;">
    <table width="100%%" cellpadding="0" cellspacing="0" style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <tr>
            <td style="background-color: #1f2933; padding: 40px 20px; text-align: center; border-radius: 8px;">
                <h1 style="color: #ffffff; margin-bottom: 30px; font-size: 24px;">One More Step</h1>
                <p style="color: #9ca3af; margin-bottom: 30px; font-size: 16px;">Confirm your email address to start receiving the Inkwell newsletter.</p>
                <a href="%s" style="display: inline-block; background-color: #b45309; color: #ffffff; text-decoration: none; padding: 12px 30px; border-radius: 6px; font-weight: bold; margin-bottom: 30px;">Confirm Subscription</a>
                <p style="color: #9ca3af; font-size: 14px;">If you didn't subscribe, you can safely ignore this email.</p>
            </td>
        </tr>
        <tr>
            <td style="text-align: center; padding-top: 20px;">
                <p style="color: #6b7280; font-size: 14px;">© 2026 Inkwell. All rights reserved.</p>
            </td>
        </tr>
    </table>
</body>
</html>
`)

	msg := []byte(fmt.Sprintf(htmlTemplate, to, confirmLink))
	return s.send(to, msg)
}

// SendSupportEmail forwards a contact-form submission to the support mailbox
func (s *EmailService) SendSupportEmail(name, email, issueType, subject, message string) error {
	body := strings.TrimSpace(`
To: %s
MIME-version: 1.0
Content-Type: text/plain; charset="UTF-8"
Subject: [Support][%s] %s

From: %s <%s>

%s
`)

	msg := []byte(fmt.Sprintf(body, s.username, issueType, subject, name, email, message))
	return s.send(s.username, msg)
}
