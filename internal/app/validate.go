package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"hotel_listings/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names so messages match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct returns nil, a *domain.ValidationError, or an unexpected
// validator error (e.g. a non-struct argument).
func validateStruct(ctx context.Context, v any) error {
	err := validate.StructCtx(ctx, v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		fields = append(fields, domain.FieldError{
			Field:   path,
			Message: fieldMessage(path, fe),
			Code:    "validation_" + fe.Tag(),
		})
	}
	return &domain.ValidationError{Fields: fields}
}

// fieldPath drops the root struct name: "HotelInput.address.ward" -> "address.ward".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(path string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", path)
	case "max":
		return fmt.Sprintf("%q length must be less than or equal to %s characters long", path, fe.Param())
	case "gt":
		return fmt.Sprintf("%q must be greater than %s", path, fe.Param())
	case "gte":
		return fmt.Sprintf("%q must be greater than or equal to %s", path, fe.Param())
	case "lte":
		return fmt.Sprintf("%q must be less than or equal to %s", path, fe.Param())
	default:
		return fmt.Sprintf("%q failed on the %q rule", path, fe.Tag())
	}
}

func unknownTypeError(typeID string) error {
	return &domain.ValidationError{Fields: []domain.FieldError{{
		Field:   "hotelType",
		Message: fmt.Sprintf("%q must reference an existing hotel type, got %q", "hotelType", typeID),
		Code:    "validation_ref",
	}}}
}

func normalizeInput(in domain.HotelInput) domain.HotelInput {
	in.Name = strings.TrimSpace(in.Name)
	in.TypeID = strings.TrimSpace(in.TypeID)
	in.Address.StreetAddress = strings.TrimSpace(in.Address.StreetAddress)
	in.Image.Path = strings.TrimSpace(in.Image.Path)
	in.Description = strings.TrimSpace(in.Description)
	return in
}
