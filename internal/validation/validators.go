package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/nicunursekatie/adhd-planner/internal/models"
	"github.com/nicunursekatie/adhd-planner/internal/recurrence"
)

// Validate is the shared validator instance, with the planner's enum
// validators registered.
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	for tag, fn := range map[string]validator.Func{
		"priority":         validatePriority,
		"urgency":          validateUrgency,
		"emotional_weight": validateEmotionalWeight,
		"energy_level":     validateEnergyLevel,
		"recurrence_type":  validateRecurrenceType,
		"date_only":        validateDateOnly,
	} {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	switch models.Priority(fl.Field().String()) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	default:
		return false
	}
}

func validateUrgency(fl validator.FieldLevel) bool {
	switch models.Urgency(fl.Field().String()) {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
		return true
	default:
		return false
	}
}

func validateEmotionalWeight(fl validator.FieldLevel) bool {
	switch models.EmotionalWeight(fl.Field().String()) {
	case models.WeightEasy, models.WeightNeutral, models.WeightStressful, models.WeightDreading:
		return true
	default:
		return false
	}
}

func validateEnergyLevel(fl validator.FieldLevel) bool {
	switch models.EnergyLevel(fl.Field().String()) {
	case models.EnergyLow, models.EnergyMedium, models.EnergyHigh:
		return true
	default:
		return false
	}
}

func validateRecurrenceType(fl validator.FieldLevel) bool {
	switch recurrence.Type(fl.Field().String()) {
	case recurrence.TypeDaily, recurrence.TypeWeekly, recurrence.TypeMonthly:
		return true
	default:
		return false
	}
}

func validateDateOnly(fl validator.FieldLevel) bool {
	return ValidateDate(fl.Field().String()) == nil
}

// SanitizeText trims whitespace and strips control characters except
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}
	return sanitized.String()
}

// ValidatePriority validates a priority string value.
func ValidatePriority(value string) error {
	switch models.Priority(value) {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return nil
	default:
		return fmt.Errorf("invalid priority: %s (must be 'low', 'medium', or 'high')", value)
	}
}

// ValidateDate validates a calendar date in the planner's date-only
// layout.
func ValidateDate(value string) error {
	if len(value) != len(models.DateOnly) {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	if _, err := time.Parse(models.DateOnly, value); err != nil {
		return fmt.Errorf("invalid date: %s (must be YYYY-MM-DD)", value)
	}
	return nil
}
