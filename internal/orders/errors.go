package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotEditable  = errors.New("order not editable")
	ErrEmptyOrder        = errors.New("cannot send empty order")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError rejects bad input before any persistence call.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
