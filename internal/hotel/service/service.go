package service

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
)

// now is swapped in tests to pin timestamps.
var now = func() time.Time { return time.Now().UTC() }

func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
