// Package notifier delivers daily digests and instant alerts to subscribers
// over email and SMS.
package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/internradar/internradar/internal/model"
)

// Per-channel limits: email digests show the top 10 postings, SMS digests the
// top 3, SMS alerts the top 2. Email alerts include everything.
const (
	digestEmailLimit = 10
	digestSMSLimit   = 3
	alertSMSLimit    = 2
)

const (
	// DigestSubject is the daily digest email subject.
	DigestSubject = "Daily CS Internship Digest"
	// AlertSubject is the instant alert email subject.
	AlertSubject = "New CS Internships Available!"
)

const emailStyle = `
		body { font-family: Arial, sans-serif; margin: 20px; }
		.header { color: white; padding: 20px; border-radius: 8px; }
		.internship { border: 1px solid #e5e7eb; margin: 15px 0; padding: 15px; border-radius: 8px; }
		.title { font-size: 18px; font-weight: bold; color: #1f2937; }
		.company { color: #6b7280; font-size: 14px; }
		.location { color: #6b7280; font-size: 14px; }
		.description { margin: 10px 0; color: #374151; }
		.salary { color: #059669; font-weight: bold; }
		.link { color: #2563eb; text-decoration: none; }
`

// DigestHTML renders the daily digest email body.
func DigestHTML(postings []model.Posting) string {
	var b strings.Builder
	b.WriteString("<html><head><style>")
	b.WriteString(emailStyle)
	b.WriteString("</style></head><body>\n")
	fmt.Fprintf(&b, `<div class="header" style="background-color: #2563eb;"><h1>Daily CS Internship Digest</h1><p>Found %d Computer Science internships for you!</p></div>`+"\n", len(postings))

	for _, p := range limited(postings, digestEmailLimit) {
		writePostingCard(&b, p, "View Job")
	}

	b.WriteString(`<div style="margin-top: 30px; padding: 20px; background-color: #f9fafb; border-radius: 8px;"><p><strong>Unsubscribe:</strong> Reply to this email with "UNSUBSCRIBE"</p></div>`)
	b.WriteString("\n</body></html>")
	return b.String()
}

// AlertHTML renders the instant alert email body.
func AlertHTML(postings []model.Posting) string {
	var b strings.Builder
	b.WriteString("<html><head><style>")
	b.WriteString(emailStyle)
	b.WriteString("</style></head><body>\n")
	fmt.Fprintf(&b, `<div class="header" style="background-color: #dc2626;"><h1>New CS Internships Available!</h1><p>%d fresh opportunities just posted!</p></div>`+"\n", len(postings))

	for _, p := range postings {
		writePostingCard(&b, p, "Apply Now")
	}

	b.WriteString(`<div style="margin-top: 30px; padding: 20px; background-color: #f9fafb; border-radius: 8px;"><p><strong>Act fast:</strong> these postings are fresh.</p></div>`)
	b.WriteString("\n</body></html>")
	return b.String()
}

// DigestSMS renders the daily digest text message.
func DigestSMS(postings []model.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CS Internship Digest: %d opportunities!\n\n", len(postings))

	for i, p := range limited(postings, digestSMSLimit) {
		fmt.Fprintf(&b, "%d. %s @ %s\n   %s\n", i+1, p.Title, p.Company, p.Location)
		if p.Salary != "" {
			fmt.Fprintf(&b, "   %s\n", p.Salary)
		}
		b.WriteString("\n")
	}

	if extra := len(postings) - digestSMSLimit; extra > 0 {
		fmt.Fprintf(&b, "...and %d more! Visit the website for details.", extra)
	}
	return b.String()
}

// AlertSMS renders the instant alert text message.
func AlertSMS(postings []model.Posting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NEW CS INTERNSHIPS! %d just posted:\n\n", len(postings))

	for i, p := range limited(postings, alertSMSLimit) {
		fmt.Fprintf(&b, "%d. %s @ %s\n   %s\n\n", i+1, p.Title, p.Company, p.Location)
	}

	if extra := len(postings) - alertSMSLimit; extra > 0 {
		fmt.Fprintf(&b, "...and %d more! Apply fast!", extra)
	}
	return b.String()
}

// writePostingCard renders one posting. Provider-supplied fields are escaped
// so stray markup cannot break the email layout.
func writePostingCard(b *strings.Builder, p model.Posting, linkLabel string) {
	fmt.Fprintf(b, `<div class="internship"><div class="title">%s</div><div class="company">%s</div><div class="location">%s</div><div class="description">%s</div>`,
		html.EscapeString(p.Title), html.EscapeString(p.Company), html.EscapeString(p.Location),
		html.EscapeString(clipRunes(p.Description, 200)))
	if p.Salary != "" {
		fmt.Fprintf(b, `<div class="salary">%s</div>`, html.EscapeString(p.Salary))
	}
	fmt.Fprintf(b, `<a href="%s" class="link">%s</a></div>`+"\n", html.EscapeString(p.SourceURL), linkLabel)
}

// clipRunes caps s at n characters plus "...", cutting on rune boundaries so
// multi-byte text stays valid UTF-8.
func clipRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func limited(postings []model.Posting, n int) []model.Posting {
	if len(postings) > n {
		return postings[:n]
	}
	return postings
}
