package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	err := Errorf(KindGeometry, "dam %s has no geometry", "d1")
	assert.Equal(t, KindGeometry, KindOf(err))
	assert.Contains(t, err.Error(), "dam d1 has no geometry")

	wrapped := eris.Wrap(err, "zone: build")
	assert.Equal(t, KindGeometry, KindOf(wrapped))
}

func TestNewError_Nil(t *testing.T) {
	assert.NoError(t, NewError(KindSchema, nil))
	assert.Equal(t, KindSchema, KindOf(NewError(KindSchema, errors.New("missing pop"))))
}

func TestErrorKind_Fatal(t *testing.T) {
	assert.True(t, KindInputLoad.Fatal())
	assert.True(t, KindSchema.Fatal())
	assert.False(t, KindGeometry.Fatal())
	assert.False(t, KindStoreWrite.Fatal())
}
