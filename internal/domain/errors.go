package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrDecode       = errors.New("tile decode failed")
	ErrTransport    = errors.New("tile transport failed")
	ErrFilter       = errors.New("filter failed")
	ErrParse        = errors.New("track parse failed")
)

// TransportError describes a failed upstream tile request.
type TransportError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: upstream returned status %d", e.URL, e.StatusCode)
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timeout: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Reason is a short label for metrics.
func (e *TransportError) Reason() string {
	switch {
	case e.StatusCode != 0:
		return "http_status"
	case e.Timeout:
		return "timeout"
	default:
		return "connection"
	}
}

type DecodeError struct {
	Key TileKey
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tile %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

type FilterError struct {
	Key    TileKey
	Filter string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %q on tile %s: %v", e.Filter, e.Key, e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

func (e *FilterError) Is(target error) bool { return target == ErrFilter }

type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse track %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
