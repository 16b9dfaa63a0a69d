package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationURL(t *testing.T) {
	link := VerificationURL("http://localhost:3000", "abc123")
	assert.Equal(t, "http://localhost:3000/verify-email?token=abc123", link)

	// Token values are query-escaped even though generated tokens are hex.
	link = VerificationURL("https://unihub.example.edu", "a+b")
	assert.Equal(t, "https://unihub.example.edu/verify-email?token=a%2Bb", link)
}

func TestFromConfig_PicksLogMailerWithoutSMTPHost(t *testing.T) {
	m := FromConfig(newTestConfig(""))
	_, ok := m.(*LogMailer)
	assert.True(t, ok)

	m = FromConfig(newTestConfig("smtp.example.edu"))
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}
