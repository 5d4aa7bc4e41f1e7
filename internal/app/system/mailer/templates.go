// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InviteEmailData holds data for invite email templates.
type InviteEmailData struct {
	SiteName         string
	OrganizationName string
	Code             string
	ExpiresIn        string // e.g., "7 days"
}

// BuildInviteEmail creates a teammate invite email with both HTML and text
// bodies.
func BuildInviteEmail(data InviteEmailData) Email {
	if data.ExpiresIn == "" {
		data.ExpiresIn = "7 days"
	}
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("You have been invited to join %s on %s", data.OrganizationName, data.SiteName),
		TextBody: buildInviteText(data),
		HTMLBody: buildInviteHTML(data),
	}
}

func buildInviteText(data InviteEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("You have been invited to join %s on %s.\n\n", data.OrganizationName, data.SiteName))
	buf.WriteString(fmt.Sprintf("Your invite code is: %s\n\n", data.Code))
	buf.WriteString("Sign in with your work email and enter the code to join your organization's account.\n\n")
	buf.WriteString(fmt.Sprintf("This code expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you were not expecting this invitation, you can safely ignore this email.\n")
	return buf.String()
}

func buildInviteHTML(data InviteEmailData) string {
	tmpl := template.Must(template.New("invite").Parse(inviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const inviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Invitation</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #1d4ed8;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                You have been invited to join <strong>{{.OrganizationName}}</strong>. Your invite code is:
              </p>

              <!-- Code Box -->
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #1f2937; font-family: 'Courier New', monospace;">{{.Code}}</span>
              </div>

              <p style="margin: 0; font-size: 14px; color: #6b7280; text-align: center;">
                Sign in with your work email and enter the code to join your organization's account.
              </p>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This code expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you were not expecting this invitation, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
