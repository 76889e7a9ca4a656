package bmp388

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := opErr(KindTransferFailure, "read data block", regData, errors.New("i2c read failed"))

	assert.Equal(t, KindTransferFailure, KindOf(err))
	assert.Equal(t, KindTransferFailure, KindOf(fmt.Errorf("acquire: %w", err)))
	assert.Equal(t, KindNone, KindOf(errors.New("plain")))
	assert.Equal(t, KindNone, KindOf(nil))
}

func TestError_Message(t *testing.T) {
	err := opErr(KindUnexpectedDevice, "verify chip id", regChipID, nil)

	assert.Contains(t, err.Error(), "verify chip id")
	assert.Contains(t, err.Error(), KindUnexpectedDevice.Message())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("i2c write failed")
	err := opErr(KindConfigurationError, "set oversampling", regOSR, cause)

	assert.ErrorIs(t, err, cause)
}

func TestKind_MessagesAreDistinct(t *testing.T) {
	kinds := []Kind{
		KindBusUnavailable, KindAddressingFailure, KindTransferFailure,
		KindUnexpectedDevice, KindConfigurationError, KindInvalidSampleCount,
		KindNilParameter, KindTimeout,
	}
	seen := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		msg := k.Message()
		assert.NotEmpty(t, msg)
		if prev, ok := seen[msg]; ok {
			t.Errorf("kinds %q and %q share message %q", prev, k, msg)
		}
		seen[msg] = k
	}
}
