package transfer_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiyakirito/mime4j-go/transfer"
)

func TestBase64RoundTrip(t *testing.T) {
	t.Parallel()

	original := "the quick brown fox jumps over the lazy dog, 0123456789"

	var buf bytes.Buffer
	w := transfer.NewBase64Encoder(&buf)
	_, err := io.WriteString(w, original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	decoded, err := io.ReadAll(transfer.NewBase64Decoder(&buf))
	require.NoError(t, err)
	assert.Equal(t, original, string(decoded))
}

func TestBase64DecodeIgnoresLineBreaksAndWhitespace(t *testing.T) {
	t.Parallel()

	// "aGVsbG8gd29ybGQ=" is "hello world", wrapped and padded with junk.
	wire := "aGVs\r\nbG8g\r\nd29y\r\nbGQ=\r\n"
	got, err := io.ReadAll(transfer.NewBase64Decoder(strings.NewReader(wire)))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))
}

func TestBase64DecodeTolerantOfMissingPadding(t *testing.T) {
	t.Parallel()

	// "aGVsbG8=" decodes to "hello"; drop the padding character entirely.
	got, err := io.ReadAll(transfer.NewBase64Decoder(strings.NewReader("aGVsbG8")))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}
