package bitmaptool

// Error is a constant error value
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNilSource     = Error("nil image source")
	ErrNoDimensions  = Error("decoder reported no dimensions")
	ErrNotSeekable   = Error("stream must be seekable")
	ErrEmptyResource = Error("empty resource name")
)
