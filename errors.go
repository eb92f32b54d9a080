package gopals

import (
	"fmt"
)

// MismatchError reports a scenario whose output differs from the expected
// literal.
type MismatchError struct {
	Got  string
	Want string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("got %s, want %s", e.Got, e.Want)
}

// RecordError reports a result that could not be written to the store.
// The scenario outcome itself is unaffected.
type RecordError struct {
	Key        string
	CounterErr error
	EncodeErr  error
	StoreErr   error
}

func (e *RecordError) Error() string {
	switch {
	case e.CounterErr != nil:
		return fmt.Sprintf("record %q: run counter failed: %v", e.Key, e.CounterErr)
	case e.EncodeErr != nil:
		return fmt.Sprintf("record %q: encode failed: %v", e.Key, e.EncodeErr)
	case e.StoreErr != nil:
		return fmt.Sprintf("record %q: store failed: %v", e.Key, e.StoreErr)
	default:
		return fmt.Sprintf("record %q: unknown error", e.Key)
	}
}

func (e *RecordError) Unwrap() []error {
	errs := make([]error, 0, 3)
	for _, err := range []error{e.CounterErr, e.EncodeErr, e.StoreErr} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
