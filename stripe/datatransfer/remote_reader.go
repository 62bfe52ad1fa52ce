package datatransfer

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/golang/glog"

	"github.com/stripefs/stripefs/stripe/security"
	"github.com/stripefs/stripefs/stripe/storage"
	"github.com/stripefs/stripefs/stripe/util"
)

// RemoteBlockReader streams bytes of one internal block from a peer,
// verifying the chunked checksums as packets arrive. Always remote: local
// replicas go through the same path.
type RemoteBlockReader struct {
	block    storage.ExtendedBlock
	conn     *util.Conn
	in       *bufio.Reader
	checksum Checksum

	// current unread packet payload
	cur []byte
	eos bool
}

// NewRemoteBlockReader connects to addr, performs the read-block handshake
// with a READ scoped token, and positions the stream at offsetInBlock.
func NewRemoteBlockReader(addr string, block storage.ExtendedBlock, offsetInBlock int64, token security.EncodedJwt, clientName string, socketTimeout time.Duration) (*RemoteBlockReader, error) {
	sock, err := net.DialTimeout("tcp", addr, socketTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %v", addr, err)
	}
	conn := util.NewConn(sock, socketTimeout)

	req := &ReadBlockRequest{
		Block:       block,
		Offset:      offsetInBlock,
		Length:      block.NumBytes - offsetInBlock,
		ClientName:  clientName,
		AccessToken: token,
	}
	if err := writeRequestFrame(conn, OpReadBlock, req.marshal()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send read block request to %s: %v", addr, err)
	}

	in := bufio.NewReader(conn)
	checksum, err := readReadResponse(in)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read block handshake with %s: %v", addr, err)
	}
	glog.V(4).Infof("reading %s from %s at offset %d, %d bytes per checksum",
		block, addr, offsetInBlock, checksum.BytesPerChecksum)

	return &RemoteBlockReader{
		block:    block,
		conn:     conn,
		in:       in,
		checksum: checksum,
	}, nil
}

// Checksum returns the stream's checksum descriptor.
func (r *RemoteBlockReader) Checksum() Checksum {
	return r.checksum
}

// Read hands out verified block bytes. Returns io.EOF after the peer's
// terminator packet. A corrupt chunk surfaces as *ChecksumError.
func (r *RemoteBlockReader) Read(p []byte) (int, error) {
	for len(r.cur) == 0 {
		if r.eos {
			return 0, io.EOF
		}
		header, checksums, data, err := ReceivePacket(r.in)
		if err != nil {
			return 0, fmt.Errorf("receive packet for %s: %v", r.block, err)
		}
		if header.LastPacket {
			r.eos = true
			continue
		}
		if err := r.checksum.VerifyChunkedSums(data, checksums, header.OffsetInBlock); err != nil {
			return 0, err
		}
		r.cur = data
	}
	n := copy(p, r.cur)
	r.cur = r.cur[n:]
	return n, nil
}

func (r *RemoteBlockReader) Close() error {
	return r.conn.Close()
}
