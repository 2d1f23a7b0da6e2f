package common

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	assert.Len(t, s, n*2)
	_, err = hex.DecodeString(s)
	assert.NoError(t, err)
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestStoreError_WrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreError("find brands", cause)

	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "find brands", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "mirror store find brands: connection refused", err.Error())
}

func TestNewStoreError_PassesThroughNilAndNotFound(t *testing.T) {
	assert.NoError(t, NewStoreError("op", nil))
	assert.Equal(t, ErrorNotFound, NewStoreError("op", ErrorNotFound))
}
