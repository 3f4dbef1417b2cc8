package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiter_SeparatesClients(t *testing.T) {
	l := newIPLimiter(0.001, 1, time.Minute)

	assert.True(t, l.get("10.0.0.1").Allow())
	assert.False(t, l.get("10.0.0.1").Allow())
	assert.True(t, l.get("10.0.0.2").Allow())
	assert.Equal(t, 2, l.limiters.ItemCount())
}

func TestIPLimiter_ForgetsIdleClients(t *testing.T) {
	l := newIPLimiter(0.001, 1, 50*time.Millisecond)

	assert.True(t, l.get("10.0.0.1").Allow())
	assert.False(t, l.get("10.0.0.1").Allow())

	assert.Eventually(t, func() bool {
		return l.limiters.ItemCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, l.get("10.0.0.1").Allow())
}
