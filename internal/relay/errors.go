package relay

import (
	"errors"
	"fmt"
)

// Router failures are always scoped to the connection that triggered them;
// nothing here is fatal to the process.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrBadPayload       = errors.New("malformed payload")
)

func missingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrBadPayload, name)
}
