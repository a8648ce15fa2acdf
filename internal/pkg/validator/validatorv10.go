package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/shandysiswandi/goverify/internal/pkg/strcase"
)

var (
	// NIST 800-63B length bounds.
	rePassword = regexp.MustCompile(`^.{8,72}$`)
	reOTPCode  = regexp.MustCompile(`^[0-9]{6}$`)
)

var ErrTranslatorNotFound = errors.New("translator not found")

type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}

	b, err := json.Marshal(vs)
	if err != nil {
		return fmt.Sprintf("validation error (failed to marshal: %v)", err)
	}
	return string(b)
}

func (vs V10ValidationError) Values() map[string]string {
	return vs
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLang := en.New()
	enTrans, ok := ut.New(enLang, enLang).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}

	if err := enTranslations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	rules := []struct {
		tag, message string
		re           *regexp.Regexp
	}{
		{tag: "password", message: "{0} must be 8-72 characters", re: rePassword},
		{tag: "otpcode", message: "{0} must be exactly 6 digits", re: reOTPCode},
	}
	for _, r := range rules {
		if err := registerRegexRule(validate, enTrans, r.tag, r.message, r.re); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: enTrans}, nil
}

func registerRegexRule(validate *validator.Validate, trans ut.Translator, tag, message string, re *regexp.Regexp) error {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && re.MatchString(s)
	})
	if err != nil {
		return err
	}

	return validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, false)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("failed to translate validation error", "tag", fe.Tag(), "error", err)
				return fe.Error()
			}
			return t
		},
	)
}

func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var validateErrs validator.ValidationErrors
	if !errors.As(err, &validateErrs) {
		return err
	}

	out := make(V10ValidationError, len(validateErrs))
	for _, fe := range validateErrs {
		out[strcase.ToLowerSnake(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}
