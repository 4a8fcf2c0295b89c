package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var validate *validator.Validate

var translator ut.Translator

var (
	whitespace = regexp.MustCompile(`\s`)
	letters    = regexp.MustCompile(`^[A-Za-z]+$`)
)

func init() {

	validate = validator.New()

	// Report fields by their json name, which is what clients send.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("alphaspace", alphaSpace)

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)

	_ = validate.RegisterTranslation("alphaspace", translator,
		func(ut ut.Translator) error {
			return ut.Add("alphaspace", "{0} can only contain letters and spaces", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("alphaspace", fe.Field())
			return t
		},
	)
}

// FieldError is the first violated rule of a checked value.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func Check(val any) error {
	if err := validate.Struct(val); err != nil {

		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		if len(verrors) < 1 {
			return nil
		}

		fe := verrors[0]
		return &FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Translate(translator),
		}
	}

	return nil
}

// Email reports whether s is a syntactically valid address.
func Email(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// alphaSpace accepts strings made only of ASCII letters once whitespace is
// stripped. A whitespace-only value is rejected.
func alphaSpace(fl validator.FieldLevel) bool {
	return letters.MatchString(whitespace.ReplaceAllString(fl.Field().String(), ""))
}

func GenerateID() string {
	return uuid.NewString()
}

func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("ID is not in its proper form")
	}
	return nil
}
