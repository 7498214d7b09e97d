package compare

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal comparison failures
type ErrorKind int

const (
	KindDocumentLoad ErrorKind = iota + 1
	KindPageRender
	KindIO
)

// String returns the taxonomy name of the kind
func (k ErrorKind) String() string {
	switch k {
	case KindDocumentLoad:
		return "DocumentLoadError"
	case KindPageRender:
		return "PageRenderError"
	case KindIO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind
var (
	ErrDocumentLoad = errors.New("document load failed")
	ErrPageRender   = errors.New("page render failed")
	ErrIO           = errors.New("artifact write failed")
)

// Error is the single terminal error a comparison surfaces
type Error struct {
	Kind ErrorKind
	// Path is the document or artifact involved.
	Path string
	// Page is the 0-based page index, or -1 when no page is involved.
	Page int
	Err  error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindDocumentLoad:
		msg = fmt.Sprintf("cannot load document %s", e.Path)
	case KindPageRender:
		msg = fmt.Sprintf("cannot render page %d of %s", e.Page+1, e.Path)
	case KindIO:
		msg = fmt.Sprintf("cannot write %s", e.Path)
	default:
		msg = "comparison failed"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDocumentLoad:
		return e.Kind == KindDocumentLoad
	case ErrPageRender:
		return e.Kind == KindPageRender
	case ErrIO:
		return e.Kind == KindIO
	}
	return false
}

func loadError(path string, err error) error {
	return &Error{Kind: KindDocumentLoad, Path: path, Page: -1, Err: err}
}

func renderError(path string, page int, err error) error {
	return &Error{Kind: KindPageRender, Path: path, Page: page, Err: err}
}

func ioError(path string, page int, err error) error {
	return &Error{Kind: KindIO, Path: path, Page: page, Err: err}
}

// KindOf returns the kind of a comparison error, or 0 if err is not one
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
