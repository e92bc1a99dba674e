package httpapi

import (
	"errors"
	"sync"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validatorsOnce sync.Once

// ContactNoValidation accepts ten digits, ignoring whitespace.
func ContactNoValidation(fl validator.FieldLevel) bool {
	return common.IsContactNo(fl.Field().String())
}

// PersonNameValidation accepts letters and spaces only.
func PersonNameValidation(fl validator.FieldLevel) bool {
	return common.IsPersonName(fl.Field().String())
}

func registerValidators() {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("contactno", ContactNoValidation)
		_ = v.RegisterValidation("personname", PersonNameValidation)
	})
}

// validationMessages flattens binding errors to "Field: X, Tag: Y" lines.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, "Field: "+fe.Field()+", Tag: "+fe.Tag())
	}
	return out
}
