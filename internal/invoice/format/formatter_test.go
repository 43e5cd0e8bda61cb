package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	issued := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	out, err := FormatNumber("INV-{YYYY}{MM}{DD}-{SEQ6}", issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260309-000042", out)

	out, err = FormatNumber(DefaultNumberTemplate, issued, 1)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", out)

	_, err = FormatNumber("", issued, 1)
	assert.Error(t, err)

	_, err = FormatNumber("INV-{SEQ}", issued, 0)
	assert.Error(t, err)

	_, err = FormatNumber("INV-{BOGUS}", issued, 1)
	assert.Error(t, err)
}

func TestNextNumber(t *testing.T) {
	issued := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV-0001", NextNumber("", issued))
	assert.Equal(t, "INV-0043", NextNumber("INV-0042", issued))
	assert.Equal(t, "INV-100", NextNumber("INV-099", issued))
	assert.Equal(t, "2026-010", NextNumber("2026-009", issued))
	assert.Equal(t, "DRAFT-1", NextNumber("DRAFT", issued))
}
