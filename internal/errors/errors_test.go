package errors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_CarryCodes(t *testing.T) {
	assert.Equal(t, CodeProjectNotFound, ErrProjectNotFound("p-1").Code)
	assert.Equal(t, CodeProjectForbidden, ErrProjectForbidden("p-1").Code)
	assert.Equal(t, CodeTemplateNotFound, ErrTemplateNotFound("t-1").Code)
	assert.Equal(t, CodeBuildInProgress, ErrBuildInProgress("p-1").Code)
	assert.Equal(t, CodeRegistryClosed, ErrRegistryClosed("admit").Code)
	assert.Equal(t, CodeSendBufferFull, ErrSendBufferFull().Code)
	assert.Equal(t, CodeTimeoutError, ErrTimeoutError("shutdown", time.Second).Code)
}

func TestSentinels_MatchByCode(t *testing.T) {
	assert.True(t, Is(ErrProjectNotFound("p-9"), ErrProjectNotFoundSentinel))
	assert.True(t, Is(ErrProjectForbidden("p-9"), ErrProjectForbiddenSentinel))
	assert.True(t, Is(ErrBuildInProgress("p-9"), ErrBuildInProgressSentinel))

	assert.False(t, Is(ErrProjectNotFound("p-9"), ErrProjectForbiddenSentinel))
	assert.False(t, Is(New("plain"), ErrProjectNotFoundSentinel))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsNotFound(ErrProjectNotFound("p-1")))
	assert.True(t, IsNotFound(ErrTemplateNotFound("t-1")))
	assert.False(t, IsNotFound(ErrBuildInProgress("p-1")))

	assert.True(t, IsForbidden(ErrProjectForbidden("p-1")))
	assert.True(t, IsBuildInProgress(ErrBuildInProgress("p-1")))
	assert.True(t, IsValidation(ErrValidationError("name", nil)))
}

func TestErrValidationError_Message(t *testing.T) {
	err := ErrValidationError("protocolType", New("unknown value"))

	assert.Contains(t, err.Error(), "protocolType")
}

func TestErrTimeoutError_IncludesDuration(t *testing.T) {
	err := ErrTimeoutError("drain", 5*time.Second)

	assert.Contains(t, err.Error(), "5s")
	assert.Contains(t, err.Error(), "drain")
}

func TestGetHTTPStatusCode_Default(t *testing.T) {
	assert.Equal(t, 500, GetHTTPStatusCode(New("opaque")))
}
