package email

import (
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

// ResendEmailService implements EmailService using the Resend API.
type ResendEmailService struct {
	client      *resend.Client
	fromAddress string
}

// NewResendEmailService creates a new Resend email service.
// fromAddress must be a sender verified in Resend.
func NewResendEmailService(apiKey, fromAddress string) *ResendEmailService {
	return &ResendEmailService{
		client:      resend.NewClient(apiKey),
		fromAddress: fromAddress,
	}
}

// Send sends an email using the specified template via Resend.
func (r *ResendEmailService) Send(to, templateName string, data any) error {
	subject, body := r.renderTemplate(templateName, data)

	params := &resend.SendEmailRequest{
		From:    r.fromAddress,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	_, err := r.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

// renderTemplate renders the email template and returns subject and HTML body.
func (r *ResendEmailService) renderTemplate(templateName string, data any) (subject, body string) {
	switch d := data.(type) {
	case WelcomeData:
		if templateName == TemplateWelcome {
			return "Welcome to Jinwoo!", renderWelcomeHTML(d)
		}
	}
	return "Message from Jinwoo", fmt.Sprintf("<p>%s</p>", html.EscapeString(fmt.Sprintf("%+v", data)))
}

func renderWelcomeHTML(data WelcomeData) string {
	appURL := data.AppURL
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Welcome to Jinwoo!</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: #11998e; padding: 30px; border-radius: 10px 10px 0 0;">
        <h1 style="color: white; margin: 0; font-size: 24px;">Jinwoo</h1>
    </div>
    <div style="background: #ffffff; padding: 30px; border: 1px solid #e0e0e0; border-top: none; border-radius: 0 0 10px 10px;">
        <h2 style="color: #333; margin-top: 0;">Welcome, %s!</h2>
        <p>Your notes live in <strong>All Notes</strong>. We left a welcome note there to get you started.</p>
        <p>Create folders to organize them, nest folders inside folders, and connect an MCP client to write notes from your assistant.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background: #11998e; color: white; padding: 14px 30px; text-decoration: none; border-radius: 6px; font-weight: 600; display: inline-block;">Open Jinwoo</a>
        </div>
        <p style="color: #999; font-size: 12px;">This is an automated message from Jinwoo. Please do not reply to this email.</p>
    </div>
</body>
</html>`, html.EscapeString(data.Email), html.EscapeString(appURL))
}
