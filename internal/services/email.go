package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"
)

type EmailService struct {
	host    string
	port    string
	user    string
	pass    string
	from    string
	devMode bool
}

func NewEmailService(host, port, user, pass, from string) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Println("⚠ Email service running in DEV MODE (logging to console)")
	}
	return &EmailService{
		host:    host,
		port:    port,
		user:    user,
		pass:    pass,
		from:    from,
		devMode: devMode,
	}
}

// SendScheduleReminder mails a heads-up shortly before a planner item
// starts.
func (s *EmailService) SendScheduleReminder(to, nickname, title string, startsAt time.Time) error {
	subject := fmt.Sprintf("Coming up: %s", title)
	body := fmt.Sprintf(
		"Hi %s,\n\n\"%s\" starts at %s. Time to get your desk ready.\n\nThe Studyroom Team",
		nickname, title, startsAt.Format("15:04"),
	)
	return s.send(to, subject, body)
}

func (s *EmailService) SendWeeklyDigest(to, nickname string, totalSeconds, streakDays int, topSubject string) error {
	hours := float64(totalSeconds) / 3600
	subject := "Your week in Studyroom"

	lines := []string{
		fmt.Sprintf("Hi %s,", nickname),
		"",
		fmt.Sprintf("You studied %.1f hours over the last 7 days.", hours),
	}
	if topSubject != "" {
		lines = append(lines, fmt.Sprintf("Most time went to %s.", topSubject))
	}
	if streakDays > 1 {
		lines = append(lines, fmt.Sprintf("Current streak: %d days. Keep it going.", streakDays))
	}
	lines = append(lines, "", "The Studyroom Team")

	return s.send(to, subject, strings.Join(lines, "\n"))
}

func (s *EmailService) send(to, subject, body string) error {
	if s.devMode {
		log.Printf("📧 [DEV EMAIL] To: %s | Subject: %s", to, subject)
		log.Printf("📧 Body:\n%s", body)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + body

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("📧 Email sent to %s: %s", to, subject)
	return nil
}
