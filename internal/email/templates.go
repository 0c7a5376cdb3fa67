package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type tourReminderEmailData struct {
	baseEmailData
	GuardianName  string
	FranchiseName string
	ScheduledDate string
}

type customEmailData struct {
	baseEmailData
	Body template.HTML
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderTourReminder(r TourReminder) (string, error) {
	return renderEmailTemplate("tour_reminder.html", tourReminderEmailData{
		baseEmailData: baseEmailData{
			Title:    "Your trial class",
			Heading:  "See you on the mat!",
			CTALabel: "Show check-in code",
			CTAURL:   r.CheckInURL,
		},
		GuardianName:  r.GuardianName,
		FranchiseName: r.FranchiseName,
		ScheduledDate: r.ScheduledAt.Format("Monday, January 2 at 3:04 PM"),
	})
}

// renderCustom wraps an already sanitized body in the base layout.
func renderCustom(subject, body string) (string, error) {
	return renderEmailTemplate("custom.html", customEmailData{
		baseEmailData: baseEmailData{Title: subject},
		Body:          template.HTML(body),
	})
}
