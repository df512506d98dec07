package billing

import "github.com/go-playground/validator/v10"

func (p NewSppPayment) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}

func (p NewMonthlyPayment) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}

func (p PayBills) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}

func (p NewOrderPayment) Validate(validate *validator.Validate) error {
	return validate.Struct(p)
}
