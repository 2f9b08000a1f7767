package services

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateParams runs the struct tags of params and converts the first
// failure into a ValidationError.
func validateParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	fe := errs[0]
	return newValidationError(lowerFirst(fe.Field()), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %q", fe.Tag())
	}
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func (s *taskMutationServiceImpl) validateFiles(files []FilePayload) error {
	if s.limits.MaxFiles > 0 && len(files) > s.limits.MaxFiles {
		return newValidationError("files", fmt.Sprintf("at most %d files per request", s.limits.MaxFiles))
	}
	for _, f := range files {
		if f.Filename == "" {
			return newValidationError("files", "file name is required")
		}
		if s.limits.MaxFileSize > 0 && int64(len(f.Data)) > s.limits.MaxFileSize {
			return newValidationError("files", fmt.Sprintf("%s exceeds %d bytes", f.Filename, s.limits.MaxFileSize))
		}
	}
	return nil
}
