package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventValueEquality(t *testing.T) {
	require.True(t, NewIntValue(1).Equal(NewIntValue(1)))
	require.False(t, NewIntValue(1).Equal(NewIntValue(2)))
	require.False(t, NewIntValue(1).Equal(NewFloatValue(1)))
	require.True(t, NewStringValue("a").Equal(NewStringValue("a")))
	require.True(t, SIG_ZERO.Equal(NewIntValue(0)))
}

func TestEventValueString(t *testing.T) {
	require.Equal(t, "1", NewIntValue(1).String())
	require.Equal(t, "1.5", NewFloatValue(1.5).String())
	require.Equal(t, `"hi"`, NewStringValue("hi").String())
}

func TestAsEventValueCoercion(t *testing.T) {
	v, err := asEventValue(3)
	require.NoError(t, err)
	require.True(t, v.Equal(NewIntValue(3)))

	v, err = asEventValue(3.5)
	require.NoError(t, err)
	require.True(t, v.Equal(NewFloatValue(3.5)))

	v, err = asEventValue("x")
	require.NoError(t, err)
	require.True(t, v.Equal(NewStringValue("x")))

	_, err = asEventValue(struct{}{})
	require.Error(t, err)
	require.IsType(t, ErrTypeMismatch{}, err)
}

func TestEventValueRaw(t *testing.T) {
	require.Equal(t, int64(7), NewIntValue(7).Raw())
	require.Equal(t, 7.5, NewFloatValue(7.5).Raw())
	require.Equal(t, "s", NewStringValue("s").Raw())
}

func TestSigUndefinedIsDistinctFromZero(t *testing.T) {
	require.False(t, SIG_UNDEFINED.Equal(SIG_ZERO))
}
