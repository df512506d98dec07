package uniform

import "github.com/go-playground/validator/v10"

func (p NewOrder) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}
