package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dhanalakshmipoojary/quiz-managment/internal/domain"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the quiz-specific tags
// registered and converts failures into domain.ValidationErrors.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with all custom tags registered.
func New() *Validator {
	validate := validator.New()
	registerCustomValidators(validate)
	return &Validator{validate: validate}
}

// Struct validates struct tags. The returned error is either nil,
// domain.ValidationErrors, or an error describing misuse of the validator.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(domain.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, domain.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func registerCustomValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return domain.QuestionType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("quiz_status", func(fl validator.FieldLevel) bool {
		switch domain.QuizStatus(fl.Field().String()) {
		case "", domain.QuizStatusAll, domain.QuizStatusPublished, domain.QuizStatusDraft:
			return true
		}
		return false
	})

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "question_type":
		return "must be a valid question type (mcq, true-false, text, short-answer, essay)"
	case "quiz_status":
		return "must be all, published or draft"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", fe.Tag())
	}
}
