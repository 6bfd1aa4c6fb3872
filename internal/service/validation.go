package service

import (
	"errors"
	"reflect"
	"strings"

	"ticket-service/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RegisterValidations installs the rules the request types rely on. gin's
// binding engine must get them too, or it panics on the unknown tags.
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		return err
	}
	return v.RegisterValidation("eventstatus", eventStatus)
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func eventStatus(fl validator.FieldLevel) bool {
	return models.ValidEventStatus(fl.Field().String())
}

// validationMessages maps "field.tag", then "field", then "" to the message
// reported when a rule on that field fails.
type validationMessages map[string]string

func (m validationMessages) translate(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}

	fe := fields[0]
	for _, key := range []string{fe.Field() + "." + fe.Tag(), fe.Field(), ""} {
		if msg, ok := m[key]; ok {
			return models.NewValidationError("%s", msg)
		}
	}
	return models.NewValidationError("Invalid %s", fe.Field())
}

type validatedRequest interface {
	messages() validationMessages
}

func validateRequest(req validatedRequest) error {
	if err := validate.Struct(req); err != nil {
		return req.messages().translate(err)
	}
	return nil
}

// BindError turns a failed gin bind of req into the request's ValidationError.
// It returns nil when err is not a rule violation, such as malformed JSON.
func BindError(req interface{}, err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return nil
	}
	if r, ok := req.(validatedRequest); ok {
		return r.messages().translate(err)
	}
	return validationMessages{}.translate(err)
}
