package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDFMediaType(t *testing.T) {
	assert.True(t, IsPDFMediaType("application/pdf"))
	assert.True(t, IsPDFMediaType("Application/PDF; name=report.pdf"))
	assert.False(t, IsPDFMediaType("text/plain"))
	assert.False(t, IsPDFMediaType(""))
	assert.False(t, IsPDFMediaType("PDF"))
}
