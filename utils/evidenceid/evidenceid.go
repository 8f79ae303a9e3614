package evidenceid

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// entropy is shared by every request goroutine; the locked reader guards the
// monotonic state so concurrent uploads can mint IDs safely.
var entropy = &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(rand.Reader, 0)}

// New returns an ev_* ULID string.
func New() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	return "ev_" + strings.ToLower(id.String())
}

// IsValid reports whether the string is an ev_* ULID.
func IsValid(value string) bool {
	if !strings.HasPrefix(value, "ev_") {
		return false
	}
	_, err := Parse(value)
	return err == nil
}

// Parse strips the ev_ prefix and returns the ULID.
func Parse(value string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "ev_")
	value = strings.TrimPrefix(value, "EV_")
	return ulid.Parse(value)
}
