package wardrobe

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func itemValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterValidation("category", validateCategory)
	})
	return validate
}

func validateCategory(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Valid()
}

// Validate checks an item record before it is stored or used.
func Validate(item Item) error {
	if err := itemValidator().Struct(item); err != nil {
		return fmt.Errorf("invalid wardrobe item %q: %w", item.ID, err)
	}
	return nil
}
