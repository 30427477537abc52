package game

import (
	"fmt"
	"strings"
)

type Mode string

const (
	Timed   Mode = "timed"
	Untimed Mode = "untimed"
)

// ParseMode accepts the canonical names plus the "rapid"/"notimer" names
// older clients send.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timed", "rapid":
		return Timed, nil
	case "untimed", "notimer":
		return Untimed, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

func (m Mode) Timed() bool {
	return m == Timed
}
