package field_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiyakirito/mime4j-go/header/field"
	"github.com/emiyakirito/mime4j-go/internal/linebuf"
)

func TestParserNextJoinsFoldedLines(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("To: a@example.com,\r\n b@example.com\r\nSubject: hi\r\n\r\nbody"))
	p := field.NewParser(lb)

	f, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "To", f.Name())
	assert.Equal(t, "a@example.com, b@example.com", f.Unfolded())

	f, err = p.Next()
	require.NoError(t, err)
	assert.Equal(t, "Subject", f.Name())
	assert.Equal(t, "hi", f.Unfolded())

	_, err = p.Next()
	assert.ErrorIs(t, err, field.ErrEndOfHeader)
}

func TestParserNextEndsOnEOFWithNoBlankLine(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("Subject: only field, no trailing blank line"))
	p := field.NewParser(lb)

	f, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, "Subject", f.Name())

	_, err = p.Next()
	assert.True(t, errors.Is(err, field.ErrEndOfHeader))
}
