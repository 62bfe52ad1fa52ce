package datatransfer

import (
	"bufio"
	"io"
)

// Sender frames the write side of a block transfer: one write-block request
// followed by data packets. Nothing is ever read back.
type Sender struct {
	out *bufio.Writer
}

func NewSender(w io.Writer) *Sender {
	return &Sender{out: bufio.NewWriterSize(w, MaxPacketSize)}
}

// WriteBlock sends the write-block handshake request.
func (s *Sender) WriteBlock(req *WriteBlockRequest) error {
	if err := writeRequestFrame(s.out, OpWriteBlock, req.marshal()); err != nil {
		return err
	}
	return s.out.Flush()
}

// WritePacket frames one data packet. An empty packet with LastPacket set
// terminates the stream.
func (s *Sender) WritePacket(h PacketHeader, checksums []byte, data []byte) error {
	return WritePacket(s.out, h, checksums, data)
}

func (s *Sender) Flush() error {
	return s.out.Flush()
}
