package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendStorybookReady(toEmail, title string, artifactId string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // used to construct links
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) SendStorybookReady(toEmail, title string, artifactId string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your storybook is ready!")

	storybookLink := fmt.Sprintf("%s/storybooks/%s", s.frontendURL, artifactId)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>%s is ready to read!</h2>
			<p>All pages, pictures and extras have finished generating.</p>
			<a href="%s" style="background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open Storybook</a>
			<p>Or copy this link:</p>
			<p>%s</p>
		</div>
	`, title, storybookLink, storybookLink)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send storybook-ready mail to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Storybook-ready mail sent to %s\n", toEmail)
	return nil
}
