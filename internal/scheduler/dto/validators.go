package dto

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// RegisterCustomValidators registers custom validation rules for scheduler DTOs
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("cron", validateCronExpression)
	validate.RegisterValidation("task_priority", validateTaskPriority)
	validate.RegisterValidation("task_status", validateTaskStatus)
}

// validateCronExpression accepts either a six-field cron expression (with
// seconds) or a descriptor such as "@every 30s" or "@hourly".
func validateCronExpression(fl validator.FieldLevel) bool {
	schedule := fl.Field().String()
	if schedule == "" {
		return false
	}

	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	if strings.HasPrefix(schedule, "@") {
		_, err := parser.Parse(schedule)
		return err == nil
	}

	if len(strings.Fields(schedule)) != 6 {
		return false
	}
	_, err := parser.Parse(schedule)
	return err == nil
}

// validateTaskPriority validates task priority values
func validateTaskPriority(fl validator.FieldLevel) bool {
	priority := fl.Field().String()
	validPriorities := []string{"low", "normal", "high", "critical"}

	for _, validPriority := range validPriorities {
		if priority == validPriority {
			return true
		}
	}
	return false
}

// validateTaskStatus validates task status values
func validateTaskStatus(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	validStatuses := []string{"pending", "running", "completed", "failed", "disabled"}

	for _, validStatus := range validStatuses {
		if status == validStatus {
			return true
		}
	}
	return false
}
