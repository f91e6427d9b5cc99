// Package mail sends transactional mail (account activation, payment
// receipts) over SMTP.
package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/Hackeries/AlgoRise-sub002/internal/pkg/env"
)

const defaultSender = "no-reply@algorise.local"

// SendMail delivers one HTML mail to a single recipient. Auth is skipped
// when SMTP_USERNAME/SMTP_PASSWORD are unset (local mailhog setups).
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = defaultSender
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	// The envelope sender stays a bare address; the header carries the
	// display name.
	msg := []byte(
		fmt.Sprintf("From: AlgoRise <%s>\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}
