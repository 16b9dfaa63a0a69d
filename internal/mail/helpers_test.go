package mail

import "unihub/internal/config"

func newTestConfig(smtpHost string) *config.Config {
	return &config.Config{
		BaseURL:  "http://localhost:3000",
		SMTPHost: smtpHost,
		SMTPPort: 587,
		MailFrom: "UniHub <no-reply@unihub.local>",
	}
}
