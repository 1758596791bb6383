package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCloneMatchesTemplate(t *testing.T) {
	err := fmt.Errorf("enroll: %w", Clone(ErrCapacity, "course period is full"))
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "course period is full", FromError(err).Message)
}

func TestIsInfrastructure(t *testing.T) {
	assert.True(t, IsInfrastructure(errors.New("dial tcp: refused")))
	assert.True(t, IsInfrastructure(Wrap(sql.ErrConnDone, ErrInternal.Code, ErrInternal.Status, "failed")))
	assert.False(t, IsInfrastructure(Clone(ErrConflict, "overlap")))
	assert.False(t, IsInfrastructure(nil))
}
