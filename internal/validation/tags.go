// Package validation registers brandcast's request validation rules with
// gin's validator and checks backing services at startup.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/zfogg/brandcast/internal/errors"
	"github.com/zfogg/brandcast/internal/platforms"
)

var registerOnce sync.Once

// RegisterBindings installs the custom tags on gin's binding engine.
// Safe to call more than once.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	var err error
	registerOnce.Do(func() {
		err = Register(v)
	})
	return err
}

// Register adds the brandcast tags to a validator instance:
//
//	platform      facebook, instagram, twitter or linkedin (any case)
//	content_kind  text, image, video or link
//
// Field names in errors come from the json tag.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("platform", validatePlatform); err != nil {
		return err
	}
	return v.RegisterValidation("content_kind", validateContentKind)
}

func validatePlatform(fl validator.FieldLevel) bool {
	_, err := platforms.ParsePlatform(fl.Field().String())
	return err == nil
}

func validateContentKind(fl validator.FieldLevel) bool {
	if fl.Field().String() == "" {
		return true
	}
	_, err := platforms.ParseContentKind(fl.Field().String())
	return err == nil
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// ToAPIError converts a binding error into an API error naming the first bad field
func ToAPIError(err error) *apierrors.APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apierrors.BadRequest("invalid request body: " + err.Error())
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	return apierrors.ValidationError(field, describe(field, fe))
}

// fieldPath drops the struct name from a namespace like "createEntryRequest.platforms[1]"
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "platform":
		return fmt.Sprintf("%s: unknown platform %q", field, fe.Value())
	case "content_kind":
		return fmt.Sprintf("%s: unknown content kind %q", field, fe.Value())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
}
