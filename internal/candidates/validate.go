package candidates

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks filter formats. It does not reject an empty set.
func (f Filters) Validate() error {
	if err := validate.Struct(f.Normalized()); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
		}
		if len(fields) == 0 {
			return fmt.Errorf("%w: %v", ErrInvalidFilters, err)
		}
		return fmt.Errorf("%w: %s", ErrInvalidFilters, strings.Join(fields, ", "))
	}
	return nil
}
