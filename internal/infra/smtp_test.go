package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/YLCALP/ciftlik360-master-sub000/internal/config"
)

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.False(t, m.Enabled())
	assert.ErrorIs(t, m.Send("ops@example.com", "s", "b"), ErrMailerDisabled)
	assert.Equal(t, CBClosed, m.BreakerState())

	var nilMailer *Mailer
	assert.False(t, nilMailer.Enabled())
}

func TestMailer_RequiresRecipients(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "localhost", SMTPPort: 2525})
	assert.True(t, m.Enabled())
	assert.Error(t, m.Send(" , ", "s", "b"))
}
