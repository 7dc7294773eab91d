package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nacca-sms/nacca-sms-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache.internal", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, dialTimeout, opts.DialTimeout)
}
