package checkout

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ruleRequired    = "required"
	ruleEmailFormat = "email_format"
	ruleTelFormat   = "tel_format"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// landline 0[2-8] plus 7 digits, or mobile 09 plus 8 digits
	telPattern = regexp.MustCompile(`^(0[2-8]\d{7}|09\d{8})$`)
)

var messages = map[string]map[string]string{
	"email": {
		ruleRequired:    "email is required",
		ruleEmailFormat: "email format is invalid",
	},
	"name": {
		ruleRequired: "name is required",
	},
	"tel": {
		ruleRequired:  "tel is required",
		ruleTelFormat: "tel format is invalid",
	},
	"address": {
		ruleRequired: "address is required",
	},
}

// FormValidator checks a checkout form before anything is sent.
type FormValidator struct {
	validate *validator.Validate
}

func NewFormValidator() *FormValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation(ruleEmailFormat, matches(emailPattern))
	_ = v.RegisterValidation(ruleTelFormat, matches(telPattern))

	return &FormValidator{validate: v}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// Validate returns a *ValidationError naming every invalid field, or nil.
func (fv *FormValidator) Validate(f Form) error {
	err := fv.validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: messageFor(fe.Field(), fe.Tag()),
		})
	}
	return out
}

func messageFor(field, rule string) string {
	if msg, ok := messages[field][rule]; ok {
		return msg
	}
	return field + " is invalid"
}
