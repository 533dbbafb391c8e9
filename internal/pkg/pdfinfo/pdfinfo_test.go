package pdfinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCountRejectsEmpty(t *testing.T) {
	_, err := PageCount(bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPageCountRejectsGarbage(t *testing.T) {
	raw := []byte("this is not a pdf at all")
	n, err := PageCount(bytes.NewReader(raw), int64(len(raw)))
	assert.Error(t, err)
	assert.Zero(t, n)
}
