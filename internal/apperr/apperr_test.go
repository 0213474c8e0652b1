package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingSettingMessage(t *testing.T) {
	err := MissingSetting("ORDERDROP_API_BASE")
	assert.Equal(t, "ORDERDROP_API_BASE is missing. Set it in your configuration.", err.Error())
	assert.True(t, IsConfiguration(fmt.Errorf("load config: %w", err)))
}

func TestKindsSurviveWrapping(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	transport := fmt.Errorf("fetch: %w", &TransportError{Message: "Request failed.", Err: cause})

	require.True(t, IsTransport(transport))
	assert.False(t, IsProtocol(transport))
	assert.ErrorIs(t, transport, cause)

	assert.True(t, IsProtocol(&ProtocolError{Message: "Invalid JSON response from server."}))
	assert.True(t, IsApplication(&ApplicationError{Message: "Stock mismatch"}))
	assert.True(t, IsValidation(&ValidationError{Message: "No valid PDF files found."}))
	assert.False(t, IsValidation(nil))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Upload failed.", Message(nil, "Upload failed."))
	assert.Equal(t, "Upload failed.", Message(errors.New("  "), "Upload failed."))
	assert.Equal(t, "Stock mismatch", Message(&ApplicationError{Message: "Stock mismatch"}, "Upload failed."))
}
