package datatransfer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/stripefs/stripefs/stripe/security"
	"github.com/stripefs/stripefs/stripe/storage"
)

const maxRequestFrameLen = 64 * 1024

// ReadBlockRequest asks a peer to stream Length bytes of one internal block
// starting at Offset.
type ReadBlockRequest struct {
	Block       storage.ExtendedBlock
	Offset      int64
	Length      int64
	ClientName  string
	AccessToken security.EncodedJwt
}

// WriteBlockRequest opens a block write on a peer before data packets flow.
type WriteBlockRequest struct {
	Block        storage.ExtendedBlock
	StorageClass string
	AccessToken  security.EncodedJwt
	Source       string
	Stage        BlockConstructionStage
	Checksum     Checksum
}

func writeString(buf *bytes.Buffer, s string) {
	var lenWord [2]byte
	binary.BigEndian.PutUint16(lenWord[:], uint16(len(s)))
	buf.Write(lenWord[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var lenWord [2]byte
	if _, err := io.ReadFull(r, lenWord[:]); err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint16(lenWord[:]))
	s := make([]byte, n)
	if _, err := io.ReadFull(r, s); err != nil {
		return "", err
	}
	return string(s), nil
}

func writeBlock(buf *bytes.Buffer, b storage.ExtendedBlock) {
	writeString(buf, b.PoolId)
	var words [24]byte
	binary.BigEndian.PutUint64(words[0:], b.BlockId)
	binary.BigEndian.PutUint64(words[8:], b.Generation)
	binary.BigEndian.PutUint64(words[16:], uint64(b.NumBytes))
	buf.Write(words[:])
}

func readBlock(r *bytes.Reader) (b storage.ExtendedBlock, err error) {
	if b.PoolId, err = readString(r); err != nil {
		return b, err
	}
	var words [24]byte
	if _, err = io.ReadFull(r, words[:]); err != nil {
		return b, err
	}
	b.BlockId = binary.BigEndian.Uint64(words[0:])
	b.Generation = binary.BigEndian.Uint64(words[8:])
	b.NumBytes = int64(binary.BigEndian.Uint64(words[16:]))
	return b, nil
}

func (req *ReadBlockRequest) marshal() []byte {
	var buf bytes.Buffer
	writeBlock(&buf, req.Block)
	var words [16]byte
	binary.BigEndian.PutUint64(words[0:], uint64(req.Offset))
	binary.BigEndian.PutUint64(words[8:], uint64(req.Length))
	buf.Write(words[:])
	writeString(&buf, req.ClientName)
	writeString(&buf, string(req.AccessToken))
	return buf.Bytes()
}

func ParseReadBlockRequest(body []byte) (*ReadBlockRequest, error) {
	r := bytes.NewReader(body)
	req := &ReadBlockRequest{}
	var err error
	if req.Block, err = readBlock(r); err != nil {
		return nil, fmt.Errorf("parse read block request: %v", err)
	}
	var words [16]byte
	if _, err = io.ReadFull(r, words[:]); err != nil {
		return nil, fmt.Errorf("parse read block request: %v", err)
	}
	req.Offset = int64(binary.BigEndian.Uint64(words[0:]))
	req.Length = int64(binary.BigEndian.Uint64(words[8:]))
	if req.ClientName, err = readString(r); err != nil {
		return nil, fmt.Errorf("parse read block request: %v", err)
	}
	var token string
	if token, err = readString(r); err != nil {
		return nil, fmt.Errorf("parse read block request: %v", err)
	}
	req.AccessToken = security.EncodedJwt(token)
	return req, nil
}

func (req *WriteBlockRequest) marshal() []byte {
	var buf bytes.Buffer
	writeBlock(&buf, req.Block)
	writeString(&buf, req.StorageClass)
	writeString(&buf, string(req.AccessToken))
	writeString(&buf, req.Source)
	buf.WriteByte(byte(req.Stage))
	buf.WriteByte(byte(req.Checksum.Type))
	var bpc [4]byte
	binary.BigEndian.PutUint32(bpc[:], uint32(req.Checksum.BytesPerChecksum))
	buf.Write(bpc[:])
	return buf.Bytes()
}

func ParseWriteBlockRequest(body []byte) (*WriteBlockRequest, error) {
	r := bytes.NewReader(body)
	req := &WriteBlockRequest{}
	var err error
	if req.Block, err = readBlock(r); err != nil {
		return nil, fmt.Errorf("parse write block request: %v", err)
	}
	if req.StorageClass, err = readString(r); err != nil {
		return nil, fmt.Errorf("parse write block request: %v", err)
	}
	var token string
	if token, err = readString(r); err != nil {
		return nil, fmt.Errorf("parse write block request: %v", err)
	}
	req.AccessToken = security.EncodedJwt(token)
	if req.Source, err = readString(r); err != nil {
		return nil, fmt.Errorf("parse write block request: %v", err)
	}
	var tail [6]byte
	if _, err = io.ReadFull(r, tail[:]); err != nil {
		return nil, fmt.Errorf("parse write block request: %v", err)
	}
	req.Stage = BlockConstructionStage(tail[0])
	req.Checksum.Type = ChecksumType(tail[1])
	req.Checksum.BytesPerChecksum = int(binary.BigEndian.Uint32(tail[2:]))
	return req, nil
}

// writeRequestFrame frames one request: u16 version, u8 opcode, u32 body
// length, body.
func writeRequestFrame(w io.Writer, op Op, body []byte) error {
	var head [7]byte
	binary.BigEndian.PutUint16(head[0:], ProtocolVersion)
	head[2] = byte(op)
	binary.BigEndian.PutUint32(head[3:], uint32(len(body)))
	if _, err := w.Write(head[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadRequestFrame reads one framed request off a peer connection.
func ReadRequestFrame(r io.Reader) (op Op, body []byte, err error) {
	var head [7]byte
	if _, err = io.ReadFull(r, head[:]); err != nil {
		return 0, nil, err
	}
	if version := binary.BigEndian.Uint16(head[0:]); version != ProtocolVersion {
		return 0, nil, fmt.Errorf("unsupported protocol version %d", version)
	}
	op = Op(head[2])
	bodyLen := int(binary.BigEndian.Uint32(head[3:]))
	if bodyLen > maxRequestFrameLen {
		return 0, nil, fmt.Errorf("request frame too large: %d", bodyLen)
	}
	body = make([]byte, bodyLen)
	if _, err = io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return op, body, nil
}

// WriteReadResponse acknowledges a read-block request: status byte, then on
// success the checksum descriptor the stream will use.
func WriteReadResponse(w io.Writer, status Status, checksum Checksum) error {
	var buf [6]byte
	buf[0] = byte(status)
	if status != StatusSuccess {
		_, err := w.Write(buf[:1])
		return err
	}
	buf[1] = byte(checksum.Type)
	binary.BigEndian.PutUint32(buf[2:], uint32(checksum.BytesPerChecksum))
	_, err := w.Write(buf[:])
	return err
}

func readReadResponse(r io.Reader) (Checksum, error) {
	var statusByte [1]byte
	if _, err := io.ReadFull(r, statusByte[:]); err != nil {
		return Checksum{}, fmt.Errorf("read response status: %v", err)
	}
	if status := Status(statusByte[0]); status != StatusSuccess {
		return Checksum{}, fmt.Errorf("read rejected by peer: %s", status)
	}
	var descriptor [5]byte
	if _, err := io.ReadFull(r, descriptor[:]); err != nil {
		return Checksum{}, fmt.Errorf("read checksum descriptor: %v", err)
	}
	checksum := Checksum{
		Type:             ChecksumType(descriptor[0]),
		BytesPerChecksum: int(binary.BigEndian.Uint32(descriptor[1:])),
	}
	if checksum.BytesPerChecksum <= 0 {
		return Checksum{}, fmt.Errorf("invalid bytes per checksum %d", checksum.BytesPerChecksum)
	}
	return checksum, nil
}
