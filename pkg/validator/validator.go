package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors is re-exported so callers do not need to import the library directly.
type ValidationErrors = validator.ValidationErrors

var validate = validator.New()

// Var validates a single value against a tag list, e.g. Var("Title", title, "min=3,max=200").
func Var(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fmt.Errorf("%s", fieldMessage(getFieldName(field), verrs[0].Tag(), verrs[0].Param(), verrs[0].Kind().String()))
		}
		return err
	}
	return nil
}

func FormatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, fieldError := range validationErrors {
			message := getFieldErrorMessage(fieldError)
			messages = append(messages, message)
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	return fieldMessage(getFieldName(fe.Field()), fe.Tag(), fe.Param(), fe.Kind().String())
}

func fieldMessage(field, tag, param, kind string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("invalid %s format", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		if kind == "string" {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		if kind == "slice" {
			return fmt.Sprintf("%s must contain at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if kind == "string" {
			return fmt.Sprintf("%s cannot exceed %s characters", field, param)
		}
		if kind == "slice" {
			return fmt.Sprintf("%s may contain at most %s items", field, param)
		}
		return fmt.Sprintf("%s cannot exceed %s", field, param)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Title":       "Title",
		"Content":     "Content",
		"Tags":        "Tags",
		"ThreadID":    "Thread ID",
		"TargetID":    "Target ID",
		"TargetType":  "Target type",
		"Type":        "Vote type",
		"Reason":      "Reason",
		"UserID":      "User ID",
		"KarmaChange": "Karma change",
		"Status":      "Status",
		"SortBy":      "Sort by",
		"Page":        "Page",
		"Limit":       "Limit",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
