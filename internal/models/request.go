package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultInferenceSteps = 50
	DefaultGuidanceScale  = 7.5
	DefaultDimension      = 512
	MaxPromptLength       = 500
)

// AllowedDimensions lists the width and height values accepted by the backend.
var AllowedDimensions = []int{512, 768, 1024}

var (
	ErrInvalidRequest = errors.New("invalid generation request")
	ErrEmptyPrompt    = errors.New("prompt must not be empty")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or a nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks the request before it is submitted. A blank prompt yields an
// error matching ErrEmptyPrompt; every failure matches ErrInvalidRequest.
func (r GenerationRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, describeFieldError(fe))
	}
	return errors.Join(errs...)
}

func describeFieldError(fe validator.FieldError) error {
	if fe.Field() == "prompt" && fe.Tag() == "notblank" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyPrompt)
	}

	var reason string
	switch fe.Tag() {
	case "max", "lte":
		if fe.Kind() == reflect.String {
			reason = fmt.Sprintf("must be at most %s characters", fe.Param())
		} else {
			reason = fmt.Sprintf("must be at most %s", fe.Param())
		}
	case "min", "gte":
		reason = fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		reason = fmt.Sprintf("must be one of %s", fe.Param())
	default:
		reason = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return fmt.Errorf("%w: %s %s", ErrInvalidRequest, fe.Field(), reason)
}

// WithDefaults returns a copy of the request with every unset tuning
// parameter filled with the backend default.
func (r GenerationRequest) WithDefaults() GenerationRequest {
	out := r
	if out.NumInferenceSteps == nil {
		steps := DefaultInferenceSteps
		out.NumInferenceSteps = &steps
	}
	if out.GuidanceScale == nil {
		scale := DefaultGuidanceScale
		out.GuidanceScale = &scale
	}
	if out.Width == nil {
		width := DefaultDimension
		out.Width = &width
	}
	if out.Height == nil {
		height := DefaultDimension
		out.Height = &height
	}
	return out
}
