package scanner_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiyakirito/mime4j-go/internal/linebuf"
	"github.com/emiyakirito/mime4j-go/internal/scanner"
)

func TestScanFindsDelimiter(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("hello world\r\n--sep\r\nrest"))
	sc := scanner.New(lb)
	region := sc.Scan([]string{"sep"}, true)

	got, err := io.ReadAll(region)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	result := region.Result()
	assert.Equal(t, scanner.ResultDelimiter, result.Kind)
	assert.Equal(t, 0, result.Depth)

	rest, err := io.ReadAll(lb.RawReader())
	require.NoError(t, err)
	assert.Equal(t, "rest", string(rest))
}

func TestScanFindsCloseDelimiter(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("body\r\n--sep--\r\nafter"))
	sc := scanner.New(lb)
	region := sc.Scan([]string{"sep"}, true)

	got, err := io.ReadAll(region)
	require.NoError(t, err)
	assert.Equal(t, "body", string(got))
	assert.Equal(t, scanner.ResultCloseDelimiter, region.Result().Kind)
}

func TestScanAllowsMatchAtOffsetZero(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("--sep\r\nafter"))
	sc := scanner.New(lb)
	region := sc.Scan([]string{"sep"}, true)

	got, err := io.ReadAll(region)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, scanner.ResultDelimiter, region.Result().Kind)
}

func TestScanInnermostBoundaryWinsTies(t *testing.T) {
	t.Parallel()

	// "outer" is a prefix of "outer-inner", so both markers match at the
	// same position; "outer-inner" (later in the slice, i.e. more deeply
	// nested per ActiveBoundaries' outermost-first order) must win.
	lb := linebuf.New(strings.NewReader("x\r\n--outer-inner\r\nrest"))
	sc := scanner.New(lb)
	region := sc.Scan([]string{"outer", "outer-inner"}, true)

	got, err := io.ReadAll(region)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
	assert.Equal(t, 1, region.Result().Depth)
}

func TestScanUnexpectedEOF(t *testing.T) {
	t.Parallel()

	lb := linebuf.New(strings.NewReader("no boundary here"))
	sc := scanner.New(lb)
	region := sc.Scan([]string{"sep"}, true)

	got, err := io.ReadAll(region)
	require.NoError(t, err)
	assert.Equal(t, "no boundary here", string(got))
	assert.Equal(t, scanner.ResultUnexpectedEOF, region.Result().Kind)
}
