package mailer

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendIntakeNotice(toEmail, userID string, summary []string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
	}
}

// SendIntakeNotice mails the recruiter the answer summary of a freshly
// completed intake.
func (s *emailService) SendIntakeNotice(toEmail, userID string, summary []string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "新しい面接申込みが届きました")

	var lines strings.Builder
	for _, line := range summary {
		lines.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
	}

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>面接申込み</h2>
			<p>ユーザー: %s</p>
			%s
		</div>
	`, html.EscapeString(userID), lines.String())

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send intake notice to %s: %w", toEmail, err)
	}
	return nil
}
