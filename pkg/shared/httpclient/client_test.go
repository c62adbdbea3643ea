package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/remedy/pkg/shared/config"
)

func TestApplyHTTPClientConfig(t *testing.T) {
	defaults := config.DefaultRestyConfig()

	got := applyHTTPClientConfig(nil)
	assert.Equal(t, defaults.RetryCount, got.RetryCount)
	assert.Equal(t, defaults.Timeout, got.Timeout)
	assert.False(t, got.TLSClientConfig.InsecureSkipVerify)

	verify := false
	got = applyHTTPClientConfig(&config.HTTPClient{
		RetryCount: 7,
		Timeout:    3 * time.Second,
		TLSClientConfig: config.TLSClientConfig{
			Verify: &verify,
		},
		Proxy: config.Proxy{Host: "proxy.local", Port: 3128},
	})
	assert.Equal(t, 7, got.RetryCount)
	assert.Equal(t, 3*time.Second, got.Timeout)
	assert.Equal(t, defaults.RetryWaitTime, got.RetryWaitTime)
	assert.True(t, got.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, "http://proxy.local:3128", got.Proxy)
}

func TestInitializeRestyClient(t *testing.T) {
	client := InitializeRestyClient(nil, &config.Config{})
	assert.NotNil(t, client)
	assert.Equal(t, config.DefaultRestyConfig().RetryCount, client.RetryCount)
}
