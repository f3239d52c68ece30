package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
	}{
		{NewValidationError("sugar exceeds carbs"), CodeValidationFailed},
		{NewResolutionError("unicorn steak"), CodeResolutionFailed},
		{NewConversionError(312.5), CodeConversionOutOfRange},
		{NewExternalServiceError("openai", stderrors.New("timeout")), CodeExternalService},
		{NewFatalError(stderrors.New("boom")), CodeFatalOrchestration},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
		assert.True(t, Is(tt.err, tt.code))
		assert.Equal(t, tt.code, GetCode(tt.err))
	}
}

func TestConversionErrorCarriesMultiplier(t *testing.T) {
	err := NewConversionError(0.002)
	require.NotNil(t, err.Metadata)
	assert.Equal(t, 0.002, err.Metadata["multiplier"])
	assert.Contains(t, err.Error(), "CONVERSION_OUT_OF_RANGE")
}

func TestFatalErrorUnwraps(t *testing.T) {
	cause := stderrors.New("chat exploded")
	err := NewFatalError(cause)
	assert.ErrorIs(t, err, cause)
}

func TestWrapPassesAppErrorsThrough(t *testing.T) {
	orig := NewResolutionError("toast")
	assert.Same(t, orig, Wrap(orig, "ignored"))

	wrapped := Wrap(stderrors.New("plain"), "context")
	assert.Equal(t, CodeFatalOrchestration, wrapped.Code)
}

func TestToEnvelope(t *testing.T) {
	env := ToEnvelope(NewConversionError(99))
	assert.True(t, env.Error)
	assert.Equal(t, string(CodeConversionOutOfRange), env.Code)

	env = ToEnvelope(stderrors.New("plain failure"))
	assert.Equal(t, string(CodeFatalOrchestration), env.Code)
}
