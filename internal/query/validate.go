package query

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate отклоняет только структурно некорректные спецификации:
// отрицательные значения, неизвестные перечисления, min > max, битый курсор.
func Validate(spec *models.FilterSpec) error {
	specErr := &models.FilterSpecError{}

	if err := getValidator().Struct(spec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			specErr.Add(fieldName(fe.Namespace()), fe.Tag())
		}
	}

	checkRange(specErr, "price", spec.MinPrice, spec.MaxPrice)
	checkRange(specErr, "sqft", spec.MinSqft, spec.MaxSqft)
	checkRange(specErr, "lot_sqft", spec.MinLotSqft, spec.MaxLotSqft)
	checkRange(specErr, "year_built", spec.MinYearBuilt, spec.MaxYearBuilt)
	if spec.ClosedFrom != nil && spec.ClosedTo != nil && spec.ClosedFrom.After(*spec.ClosedTo) {
		specErr.Add("closed", "closed_from is after closed_to")
	}

	if spec.Cursor != "" {
		if _, err := decodeCursor(spec.Cursor); err != nil {
			specErr.Add("cursor", "malformed")
		}
	}

	if len(specErr.Fields) > 0 {
		return specErr
	}
	return nil
}

type ordered interface {
	~int | ~int64 | ~float64
}

func checkRange[T ordered](e *models.FilterSpecError, name string, min, max *T) {
	if min != nil && max != nil && *min > *max {
		e.Add(name, "min is greater than max")
	}
}

// fieldName переводит "FilterSpec.Street.Side" в "street.side".
func fieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}
