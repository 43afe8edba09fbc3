package field_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zostay/go-addr/pkg/addr"

	"github.com/emiyakirito/mime4j-go/header/field"
)

func TestStructuredParsesRegisteredDateField(t *testing.T) {
	t.Parallel()

	f := field.Parse([]byte("Date: Mon, 2 Jan 2006 15:04:05 -0700\r\n"))

	v, ok, err := field.Structured(f)
	require.True(t, ok)
	require.NoError(t, err)

	got, isTime := v.(time.Time)
	require.True(t, isTime)
	assert.True(t, got.Equal(time.Date(2006, time.January, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600))))
}

func TestStructuredParsesRegisteredAddressField(t *testing.T) {
	t.Parallel()

	f := field.Parse([]byte("From: Simon Cozens <simon@simon-cozens.org>\r\n"))

	v, ok, err := field.Structured(f)
	require.True(t, ok)
	require.NoError(t, err)

	want, err := addr.ParseEmailAddressList("Simon Cozens <simon@simon-cozens.org>")
	require.NoError(t, err)

	assert.Equal(t, want, v)
}

func TestStructuredReportsNoParserForUnregisteredField(t *testing.T) {
	t.Parallel()

	f := field.Parse([]byte("X-Custom: whatever\r\n"))

	_, ok, err := field.Structured(f)
	assert.False(t, ok)
	assert.NoError(t, err)
}
