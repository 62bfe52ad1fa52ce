package datatransfer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stripefs/stripefs/stripe/storage"
)

func TestReadBlockRequestFraming(t *testing.T) {
	req := &ReadBlockRequest{
		Block:       storage.ExtendedBlock{PoolId: "BP-1", BlockId: 42, Generation: 9, NumBytes: 1 << 20},
		Offset:      4096,
		Length:      65536,
		ClientName:  "reconstruction-abc",
		AccessToken: "token",
	}

	var buf bytes.Buffer
	require.NoError(t, writeRequestFrame(&buf, OpReadBlock, req.marshal()))

	op, body, err := ReadRequestFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, OpReadBlock, op)

	got, err := ParseReadBlockRequest(body)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestWriteBlockRequestFraming(t *testing.T) {
	req := &WriteBlockRequest{
		Block:        storage.ExtendedBlock{PoolId: "BP-1", BlockId: 43, Generation: 2, NumBytes: 12345},
		StorageClass: "ssd",
		AccessToken:  "jwt",
		Source:       "node-1",
		Stage:        StagePipelineSetupCreate,
		Checksum:     NewDefaultChecksum(),
	}

	var buf bytes.Buffer
	require.NoError(t, writeRequestFrame(&buf, OpWriteBlock, req.marshal()))

	op, body, err := ReadRequestFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, OpWriteBlock, op)

	got, err := ParseWriteBlockRequest(body)
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestReadRequestFrameRejectsBadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRequestFrame(&buf, OpReadBlock, []byte("x")))
	raw := buf.Bytes()
	raw[0] = 0xff

	_, _, err := ReadRequestFrame(bytes.NewReader(raw))
	assert.Error(t, err)
}

func TestReadResponseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReadResponse(&buf, StatusSuccess, NewDefaultChecksum()))
	checksum, err := readReadResponse(&buf)
	require.NoError(t, err)
	assert.Equal(t, NewDefaultChecksum(), checksum)

	buf.Reset()
	require.NoError(t, WriteReadResponse(&buf, StatusErrorAccessToken, Checksum{}))
	_, err = readReadResponse(&buf)
	assert.ErrorContains(t, err, "ERROR_ACCESS_TOKEN")
}
