package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.True(t, StatusPass.IsValid())
	assert.True(t, StatusFail.IsValid())
	assert.False(t, Status("maybe").IsValid())

	assert.Equal(t, "✅", StatusPass.Glyph())
	assert.Equal(t, "❌", StatusFail.Glyph())
	assert.Equal(t, "pass", StatusPass.String())
}
