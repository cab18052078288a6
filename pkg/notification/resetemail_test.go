package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetCodeEmail(t *testing.T) {
	n := ResetCodeEmail("ana@example.com", "123456", 10*time.Minute)

	assert.Equal(t, "ana@example.com", n.To)
	assert.Equal(t, "Password reset code", n.Subject)
	assert.Contains(t, n.Text, "123456")
	assert.Contains(t, n.Text, "10 minutes")
	assert.Contains(t, n.HTML, "123456")
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()

	require.NoError(t, m.Send(context.Background(), Notification{To: "ana@example.com"}))
	require.Len(t, m.Sent(), 1)

	m.Err = errors.New("smtp down")
	require.Error(t, m.Send(context.Background(), Notification{To: "ana@example.com"}))
	assert.Len(t, m.Sent(), 1, "failed sends are not recorded")
}
