package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRedisLimiter_Limit(t *testing.T) {
	l := NewRedisLimiter(nil, "browse-wallet", 4)
	assert.Equal(t, 4, l.limit.Rate)
	assert.Equal(t, 1, l.limit.Burst)
	assert.Equal(t, time.Minute, l.limit.Period)

	assert.Equal(t, 6, NewRedisLimiter(nil, "", 0).limit.Rate)
}
