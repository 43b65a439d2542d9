package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	msg := Compose("noreply@example.com", "a@example.com")

	assert.Equal(t, "noreply@example.com", msg.From)
	assert.Equal(t, "a@example.com", msg.To)
	assert.NotEmpty(t, msg.Subject)
	assert.NotEmpty(t, msg.Body)
}

func TestNewSMTPSender_RequiresHostAndPort(t *testing.T) {
	_, err := NewSMTPSender("", "587", "", "")
	assert.Error(t, err)

	_, err = NewSMTPSender("smtp.example.com", "", "", "")
	assert.Error(t, err)

	s, err := NewSMTPSender("smtp.example.com", "587", "user", "pass")
	require.NoError(t, err)
	assert.NotNil(t, s)
}
