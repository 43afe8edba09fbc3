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

func TestQuotedPrintableDecodeBasic(t *testing.T) {
	t.Parallel()

	r := transfer.NewQuotedPrintableDecoder(strings.NewReader("caf=C3=A9"))
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "caf\xc3\xa9", string(got))
}

func TestQuotedPrintableDecodeSoftLineBreak(t *testing.T) {
	t.Parallel()

	r := transfer.NewQuotedPrintableDecoder(strings.NewReader("one=\r\ntwo"))
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(got))
}

func TestQuotedPrintableDecodeTolerantOfBareEquals(t *testing.T) {
	t.Parallel()

	r := transfer.NewQuotedPrintableDecoder(strings.NewReader("50% = fun"))
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "50% = fun", string(got))
}

func TestQuotedPrintableEncodeSpacesAlwaysEscaped(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := transfer.NewQuotedPrintableEncoder(&buf)
	_, err := io.WriteString(w, "7bit content with euro \xc2\xa4 symbol")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "7bit=20content=20with=20euro=20=C2=A4=20symbol", buf.String())
}

func TestQuotedPrintableEncodeSoftWrapsLongLines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := transfer.NewQuotedPrintableEncoder(&buf)
	_, err := io.WriteString(w, strings.Repeat("a", 80))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	lines := strings.Split(buf.String(), "\r\n")
	require.GreaterOrEqual(t, len(lines), 2)
	for _, line := range lines[:len(lines)-1] {
		assert.LessOrEqual(t, len(line), 76) // the line already ends in its soft-break "="
	}
}

func TestQuotedPrintableRoundTrip(t *testing.T) {
	t.Parallel()

	original := "Plain text with a few \t tabs, trailing spaces   \r\nand a line break."

	var buf bytes.Buffer
	w := transfer.NewQuotedPrintableEncoder(&buf)
	_, err := io.WriteString(w, original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	decoded, err := io.ReadAll(transfer.NewQuotedPrintableDecoder(&buf))
	require.NoError(t, err)
	assert.Equal(t, original, string(decoded))
}
