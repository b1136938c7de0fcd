package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("parse: %w", Wrap(errors.New("bad bytes"), ErrUndecodable.Code, ErrUndecodable.Status, "cannot read upload"))
	appErr := FromError(wrapped)
	assert.Equal(t, "UNDECODABLE_INPUT", appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "cannot read upload: bad bytes", appErr.Error())

	plain := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
}

func TestClone(t *testing.T) {
	clone := Clone(ErrPayloadTooLarge, "document exceeds 10 bytes")

	assert.Equal(t, "document exceeds 10 bytes", clone.Message)
	assert.Equal(t, "document exceeds the size limit", ErrPayloadTooLarge.Message)
	assert.Equal(t, ErrPayloadTooLarge.Status, clone.Status)
	assert.Nil(t, Clone(nil, "x"))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(cause, ErrInternal.Code, ErrInternal.Status, "failed")

	assert.ErrorIs(t, err, cause)
	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
}
