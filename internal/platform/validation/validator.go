package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MixxMasterMike123/b8s-reseller-app-sub001/internal/platform/errs"
)

// Validator implements echo.Validator. Failures are classified as
// errs.InvalidArgument and name fields by their JSON keys.
type Validator struct{ v *validator.Validate }

// New returns a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	// notblank rejects strings that are empty after trimming whitespace.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		if f.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(f.String()) != ""
	})
	return &Validator{v: v}
}

func (d *Validator) Validate(i interface{}) error {
	err := d.v.Struct(i)
	if err == nil {
		return nil
	}
	return errs.Wrap(errs.InvalidArgument, err, "%s", summarize(err))
}

// Var validates a single value against a tag list, e.g. "required,email".
func (d *Validator) Var(field string, value any, tag string) error {
	if err := d.v.Var(value, tag); err != nil {
		return errs.Wrap(errs.InvalidArgument, err, "invalid %s", field)
	}
	return nil
}

func summarize(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]+" ("+fe.Tag()+")")
	}
	return "invalid request: " + strings.Join(parts, ", ")
}
