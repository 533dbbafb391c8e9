package pdfinfo

import (
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

var ErrEmpty = errors.New("empty pdf")

// PageCount reads the page tree of the PDF in r. The reader is not consumed
// sequentially, so callers can pass an upload they still have to store.
func PageCount(r io.ReaderAt, size int64) (n int, err error) {
	if size <= 0 {
		return 0, ErrEmpty
	}
	// The parser panics on some malformed trailers.
	defer func() {
		if p := recover(); p != nil {
			n, err = 0, fmt.Errorf("parse pdf failed: %v", p)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("open pdf failed: %w", err)
	}
	return reader.NumPage(), nil
}
