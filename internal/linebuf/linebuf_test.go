package linebuf_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiyakirito/mime4j-go/internal/linebuf"
)

func TestReadLine(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("one\r\ntwo\r\nthree"))

	line, err := lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one\r\n", string(line))

	line, err = lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "two\r\n", string(line))

	line, err = lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "three", string(line))

	_, err = lb.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPeekLineDoesNotConsume(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("a\r\nb\r\n"))

	peeked, err := lb.PeekLine()
	require.NoError(t, err)
	assert.Equal(t, "a\r\n", string(peeked))

	read, err := lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, peeked, read)

	line, err := lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "b\r\n", string(line))
}

func TestUnreadIsServedBeforeSource(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("world"))
	lb.Unread([]byte("hello "))

	got, err := io.ReadAll(lb.RawReader())
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestRequireCRTreatsLoneLFAsContent(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("one\ntwo\r\nthree"))
	lb.RequireCR(true)

	line, err := lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\r\n", string(line))

	line, err = lb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "three", string(line))
}

func TestLineTooLong(t *testing.T) {
	t.Parallel()

	lb := linebuf.NewSize(strings.NewReader("0123456789\r\n"), 5)
	_, err := lb.ReadLine()
	assert.ErrorIs(t, err, linebuf.ErrLineTooLong)
}

func TestRawReaderInterleavesWithPeek(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("a\r\nrest of stream"))
	_, err := lb.PeekLine()
	require.NoError(t, err)

	got, err := io.ReadAll(lb.RawReader())
	require.NoError(t, err)
	assert.Equal(t, "a\r\nrest of stream", string(got))
}
