package l6buildings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMethod is returned for a height statistic outside Method's
// enumerated values.
var ErrInvalidMethod = errors.New("invalid LOD1 height method")

// Method selects the roof height statistic.
type Method int

const (
	Minimum Method = iota
	Average
	Median
	Maximum
)

// DefaultMethod is used when no method is given.
const DefaultMethod = Average

var methodNames = [...]string{"MINIMUM", "AVERAGE", "MEDIAN", "MAXIMUM"}

// String returns the upper-case method name.
func (m Method) String() string {
	if m.Valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Valid reports whether m is one of the four statistics.
func (m Method) Valid() bool { return m >= Minimum && m <= Maximum }

// ParseMethod maps a case-insensitive method name to a Method.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMethod, s)
}
