package fulfill

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/chatrelay/chatrelay/pkg/tenant"
)

// submissionEmail renders the notification mail for the organization: an HTML
// table of the answers and a priority footer.
func submissionEmail(req Request, form *tenant.Form) (subject, body string) {
	title := form.Title
	if title == "" {
		title = req.FormID
	}
	subject = fmt.Sprintf("New %s submission", title)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>%s</h2>\n", html.EscapeString(subject)))
	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0">` + "\n")

	keys := make([]string, 0, len(req.FormData))
	for k := range req.FormData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		b.WriteString(fmt.Sprintf("<tr><td><b>%s</b></td><td>%s</td></tr>\n",
			html.EscapeString(fieldLabel(k, form)),
			html.EscapeString(fmt.Sprint(req.FormData[k]))))
	}
	b.WriteString("</table>\n")
	b.WriteString(fmt.Sprintf("<p>Priority: %s</p>\n", strings.ToUpper(req.Priority)))
	b.WriteString(fmt.Sprintf("<p>Submission ID: %s</p>\n", html.EscapeString(req.SubmissionID)))

	return subject, b.String()
}

// confirmationEmail is the visitor-facing acknowledgment.
func confirmationEmail(req Request, form *tenant.Form) (subject, body string) {
	org := req.Config.OrganizationName
	if org == "" {
		org = "our team"
	}
	title := form.Title
	if title == "" {
		title = "your form"
	}

	subject = fmt.Sprintf("We received your %s", title)
	body = fmt.Sprintf(
		"<p>Hi %s,</p>\n"+
			"<p>Thank you for submitting %s. Someone from %s will be in touch soon.</p>\n"+
			"<p>Warm regards,<br>%s</p>\n",
		html.EscapeString(firstNameOrFriend(req.FormData)),
		html.EscapeString(title),
		html.EscapeString(org),
		html.EscapeString(org))
	return subject, body
}

func firstNameOrFriend(data map[string]interface{}) string {
	if name := stringField(data, "first_name"); name != "" {
		return name
	}
	return "there"
}

func fieldLabel(key string, form *tenant.Form) string {
	for _, f := range form.Fields {
		if f.ID == key && f.Label != "" {
			return f.Label
		}
		for _, sub := range f.Fields {
			if f.ID+"."+sub.ID == key && sub.Label != "" {
				return sub.Label
			}
		}
	}
	return key
}

// SendConfirmation emails the visitor an acknowledgment. Best effort; callers
// swallow the error.
func (o *Orchestrator) SendConfirmation(ctx context.Context, to string, req Request) error {
	if o.mailer == nil {
		return fmt.Errorf("no mailer configured")
	}
	form := req.Config.ConversationalForms[req.FormID]
	subject, body := confirmationEmail(req, &form)
	return o.mailer.Send(ctx, to, subject, body)
}
