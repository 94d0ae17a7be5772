package reservoir

import (
	"github.com/go-playground/validator/v10"
)

// Request is one run of the pipeline: the uploaded file and the chosen frequency.
// It is built from user input on every interaction and never mutated.
type Request struct {
	Filename  string `json:"filename" validate:"required"`
	Content   []byte `json:"content" validate:"required,min=1"`
	Frequency string `json:"frequency" validate:"required,frequency"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		_, err := ParseFrequency(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the request fields. An unknown frequency is reported as
// UnsupportedFrequencyError.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				if fe.Tag() == "frequency" {
					return &UnsupportedFrequencyError{Label: r.Frequency}
				}
			}
		}
		return &ValidationError{Err: err}
	}
	return nil
}
