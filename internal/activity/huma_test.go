package activity

import (
	"testing"

	"go-gatewatch/internal/activity/dto"

	"github.com/stretchr/testify/assert"
)

// TestActivityHumaDTOs tests that activity Huma DTOs are properly structured
func TestActivityHumaDTOs(t *testing.T) {
	// Test basic input/output types compile correctly
	var activitiesOutput interface{} = &dto.ActivitiesOutput{}
	var regionsOutput interface{} = &dto.RegionsActivityOutput{}
	var sessionsOutput interface{} = &dto.SessionsOutput{}
	var statsOutput interface{} = &dto.SessionStatsOutput{}

	assert.NotNil(t, activitiesOutput)
	assert.NotNil(t, regionsOutput)
	assert.NotNil(t, sessionsOutput)
	assert.NotNil(t, statsOutput)

	t.Logf("✅ Activity Huma DTOs are properly structured")
}

// TestActivityHumaValidation tests that validation tags are properly set
func TestActivityHumaValidation(t *testing.T) {
	// Test GetSessionDetailInput with required session_id
	detailInput := &dto.GetSessionDetailInput{SessionID: "30002813-Stargate (Nourvukaiken)"}
	assert.Equal(t, "30002813-Stargate (Nourvukaiken)", detailInput.SessionID)

	// Test GetSessionsInput with paging and filters
	sessionsInput := &dto.GetSessionsInput{
		Limit:          50,
		Offset:         0,
		Classification: "camp",
		Region:         "Black Rise",
		Hours:          24,
	}

	assert.Equal(t, 50, sessionsInput.Limit)
	assert.Equal(t, 0, sessionsInput.Offset)
	assert.Equal(t, "camp", sessionsInput.Classification)
	assert.Equal(t, "Black Rise", sessionsInput.Region)
	assert.Equal(t, 24, sessionsInput.Hours)

	t.Logf("✅ Activity Huma validation tags are properly configured")
}
