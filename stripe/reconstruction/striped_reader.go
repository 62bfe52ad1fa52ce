package reconstruction

import (
	"io"

	"github.com/stripefs/stripefs/stripe/datatransfer"
	"github.com/stripefs/stripefs/stripe/storage"
)

// stripedReader is the per-source state of one reconstruction task: the
// internal block it serves, the peer holding it, the remote read channel and
// a reusable slice buffer. Readers are allocated once per source and keep
// their position in the task's reader list for the life of the task.
//
// A reader with a nil remote channel is not read from. Like a reader that
// merely missed this iteration's success list, it may be reopened by
// scheduleNewRead in a later iteration.
type stripedReader struct {
	index  int // internal block index
	block  storage.ExtendedBlock
	source string

	reader *datatransfer.RemoteBlockReader
	buf    []byte
	n      int // bytes filled this window

	// busy marks an in-flight read job that still owns buf; the scheduler
	// must not touch the buffer or channel until its completion arrives.
	busy bool
}

func (r *stripedReader) ensureBuffer(bufferSize int) {
	if len(r.buf) < bufferSize {
		r.buf = make([]byte, bufferSize)
	}
}

func (r *stripedReader) closeChannel() {
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
}

// readSlice fills buf from the remote channel. A short read at the end of
// the internal block is not an error; the scheduler pads with zeros.
func readSlice(br *datatransfer.RemoteBlockReader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := br.Read(buf[n:])
		n += m
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
