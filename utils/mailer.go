package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"technova/config"
)

type EmailData struct {
	Subject  string
	To       []string
	Template string
	Data     interface{}
}

// Embedded email templates
var emailTemplates = map[string]string{
	"otp": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .otp-code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your TechNova Verification Code</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>Here is your one-time verification code:</p>

        <div class="otp-code">{{.OTP}}</div>

        <p>This code will expire in 15 minutes. Please don't share this code with anyone.</p>
    </div>

    <div class="footer">
        <p>If you didn't request this code, you can safely ignore this email.</p>
        <p>© {{.Year}} TechNova. All rights reserved.</p>
    </div>
</body>
</html>`,

	"reset-otp": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .otp-code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Password Reset Request</h2>
    </div>

    <div class="content">
        <p>Hello,</p>
        <p>We received a request to reset your password. Here is your verification code:</p>

        <div class="otp-code">{{.OTP}}</div>

        <p>This code will expire in 15 minutes. If you didn't request a password reset, please ignore this email.</p>
    </div>

    <div class="footer">
        <p>For security reasons, don't share this code with anyone.</p>
        <p>© {{.Year}} TechNova. All rights reserved.</p>
    </div>
</body>
</html>`,

	"pass-verified": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .pass-name { font-size: 20px; font-weight: bold; color: #27ae60; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your Pass Is Confirmed</h2>
    </div>

    <div class="content">
        <p>Hello {{.Name}},</p>
        <p>Your payment has been verified and your pass is now active:</p>

        <div class="pass-name">{{.PassName}}</div>

        <p>You can now register teams and submit entries for the events this pass covers. See you at the fest!</p>
    </div>

    <div class="footer">
        <p>© {{.Year}} TechNova. All rights reserved.</p>
    </div>
</body>
</html>`,
}

func SendEmail(data EmailData) error {
	cfg := config.AppConfig

	tmplContent, ok := emailTemplates[data.Template]
	if !ok {
		return fmt.Errorf("template '%s' not found", data.Template)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail))
	m.SetHeader("To", data.To...)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}

func SendOTPEmail(email, otp string) error {
	return SendEmail(EmailData{
		Subject:  "Your TechNova verification code",
		To:       []string{email},
		Template: "otp",
		Data: map[string]interface{}{
			"Subject": "Your TechNova verification code",
			"OTP":     otp,
			"Year":    time.Now().Year(),
		},
	})
}

func SendPasswordResetOTPEmail(email, otp string) error {
	return SendEmail(EmailData{
		Subject:  "TechNova password reset code",
		To:       []string{email},
		Template: "reset-otp",
		Data: map[string]interface{}{
			"Subject": "TechNova password reset code",
			"OTP":     otp,
			"Year":    time.Now().Year(),
		},
	})
}

func SendPassVerifiedEmail(email, name, passName string) error {
	return SendEmail(EmailData{
		Subject:  "Your TechNova pass is confirmed",
		To:       []string{email},
		Template: "pass-verified",
		Data: map[string]interface{}{
			"Subject":  "Your TechNova pass is confirmed",
			"Name":     name,
			"PassName": passName,
			"Year":     time.Now().Year(),
		},
	})
}
