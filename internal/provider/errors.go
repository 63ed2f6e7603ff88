package provider

import "fmt"

// Error represents a failure talking to the external charger directory.
// Callers treat any Error as an empty batch; the type exists so the reason
// stays inspectable for logging.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("charger directory error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("charger directory error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new charger directory error
func NewError(message string, err error) *Error {
	return &Error{
		Message: message,
		Err:     err,
	}
}
