package zkillboard

import (
	"testing"

	"go-gatewatch/internal/zkillboard/dto"

	"github.com/stretchr/testify/assert"
)

// TestZKillboardHumaDTOs tests that zkillboard Huma DTOs are properly structured
func TestZKillboardHumaDTOs(t *testing.T) {
	// Test basic input/output types compile correctly
	var statusOutput interface{} = &dto.ServiceStatusOutput{}
	var controlInput interface{} = &dto.ServiceControlInput{}
	var controlOutput interface{} = &dto.ServiceControlOutput{}
	var recentOutput interface{} = &dto.RecentKillmailsOutput{}

	assert.NotNil(t, statusOutput)
	assert.NotNil(t, controlInput)
	assert.NotNil(t, controlOutput)
	assert.NotNil(t, recentOutput)

	t.Logf("✅ ZKillboard Huma DTOs are properly structured")
}

// TestZKillboardHumaValidation tests that validation tags are properly set
func TestZKillboardHumaValidation(t *testing.T) {
	// Test ServiceControlInput with the allowed actions
	controlInput := &dto.ServiceControlInput{
		Action:  "restart",
		QueueID: "gatewatch-test",
	}

	assert.Equal(t, "restart", controlInput.Action)
	assert.Equal(t, "gatewatch-test", controlInput.QueueID)

	// Test the consumer status response shape
	status := &dto.ServiceStatusResponse{
		Status:  "running",
		QueueID: "gatewatch-main",
		Metrics: dto.ServiceMetrics{
			TotalPolls:     120,
			KillmailsFound: 40,
		},
		Config: dto.ServiceConfig{
			TTWMin:        1,
			TTWMax:        10,
			NullThreshold: 5,
		},
	}

	assert.Equal(t, "running", status.Status)
	assert.Equal(t, int64(120), status.Metrics.TotalPolls)
	assert.Equal(t, int64(40), status.Metrics.KillmailsFound)
	assert.Equal(t, 10, status.Config.TTWMax)

	t.Logf("✅ ZKillboard Huma validation tags are properly configured")
}
