package masavfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRejectsWrongRecordLength(t *testing.T) {
	_, err := Decode([]byte("too short\r\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "length")
}

func TestDecodeRejectsMissingEOF(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)

	// Drop the end marker record.
	truncated := file.Content[:len(file.Content)-130]
	_, err = Decode(truncated)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "end-of-file")
}

func TestDecodeRejectsTamperedTotal(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)

	// The trailer is the fourth record; corrupt the first digit of its
	// 15-digit total field.
	trailerStart := 3 * (recordLen + 2)
	file.Content[trailerStart+21] = '9'

	_, err = Decode(file.Content)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "total")
}

func TestDecodeToleratesLFSeparators(t *testing.T) {
	file, err := Encode(testSettings(), testTransfers(), testOptions())
	require.NoError(t, err)

	lfOnly := bytes.ReplaceAll(file.Content, []byte("\r\n"), []byte("\n"))
	decoded, err := Decode(lfOnly)
	require.NoError(t, err)
	assert.Len(t, decoded.Payments, 2)
}
