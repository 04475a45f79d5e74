package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Validates(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
}

func TestValidate_RejectsBadPoolSize(t *testing.T) {
	c := Default()
	c.WorkerPoolSize = "not-a-number"
	assert.Error(t, c.Validate())
}

func TestValidate_RejectsCapBelowBase(t *testing.T) {
	c := Default()
	c.RetryBaseSeconds = 100
	c.RetryCapSeconds = 50
	assert.Error(t, c.Validate())
}

func TestRetryBackoff_ExponentialWithCap(t *testing.T) {
	c := Default()
	c.RetryBaseSeconds = 30
	c.RetryCapSeconds = 3600

	assert.Equal(t, int64(30), int64(c.RetryBackoff(1).Seconds()))
	assert.Equal(t, int64(60), int64(c.RetryBackoff(2).Seconds()))
	assert.Equal(t, int64(120), int64(c.RetryBackoff(3).Seconds()))
	assert.Equal(t, int64(3600), int64(c.RetryBackoff(20).Seconds()))
}

func TestWorkerCount_ExplicitSize(t *testing.T) {
	c := Default()
	c.WorkerPoolSize = "7"
	assert.Equal(t, 7, c.WorkerCount())
}

func TestWorkerCount_AutoIsBounded(t *testing.T) {
	c := Default()
	c.WorkerPoolSize = "auto"
	n := c.WorkerCount()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 20)
}
