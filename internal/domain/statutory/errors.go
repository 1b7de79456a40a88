package statutory

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownBracketVersion = errors.New("no statutory bracket set covers the requested date")
	ErrInvalidBracketSet     = errors.New("invalid statutory bracket set")
	ErrUnsupportedFile       = errors.New("unsupported statutory bracket file version")
)

// UnknownBracketVersionError names the date no bracket set could serve.
type UnknownBracketVersionError struct {
	Date time.Time
}

func (e *UnknownBracketVersionError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownBracketVersion, e.Date.Format("2006-01-02"))
}

func (e *UnknownBracketVersionError) Unwrap() error {
	return ErrUnknownBracketVersion
}
