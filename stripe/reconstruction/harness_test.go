package reconstruction

import (
	"bufio"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/reedsolomon"
	"github.com/stretchr/testify/require"

	"github.com/stripefs/stripefs/stripe/cluster"
	"github.com/stripefs/stripefs/stripe/datatransfer"
	"github.com/stripefs/stripefs/stripe/storage/erasure_coding"
)

// testConfig is a map backed Configuration for tests.
type testConfig map[string]interface{}

func (c testConfig) GetString(key string) string {
	v, _ := c[key].(string)
	return v
}

func (c testConfig) GetBool(key string) bool {
	v, _ := c[key].(bool)
	return v
}

func (c testConfig) GetInt(key string) int {
	v, _ := c[key].(int)
	return v
}

func (c testConfig) GetStringSlice(key string) []string {
	v, _ := c[key].([]string)
	return v
}

func (c testConfig) SetDefault(key string, value interface{}) {
	if _, ok := c[key]; !ok {
		c[key] = value
	}
}

// encodeGroup stripes data over the policy's cells and encodes parity, then
// trims each column to its internal block length.
func encodeGroup(tb testing.TB, policy erasure_coding.Policy, data []byte) [][]byte {
	tb.Helper()
	total := policy.TotalUnits()
	col0 := erasure_coding.InternalBlockLength(int64(len(data)), policy.CellSize, policy.DataUnits, 0)

	shards := make([][]byte, total)
	for i := range shards {
		shards[i] = make([]byte, col0)
	}
	for pos := 0; pos < len(data); {
		cell := pos / policy.CellSize
		col := cell % policy.DataUnits
		row := cell / policy.DataUnits
		offInCell := pos % policy.CellSize
		n := policy.CellSize - offInCell
		if n > len(data)-pos {
			n = len(data) - pos
		}
		copy(shards[col][row*policy.CellSize+offInCell:], data[pos:pos+n])
		pos += n
	}

	enc, err := reedsolomon.New(policy.DataUnits, policy.ParityUnits)
	require.NoError(tb, err)
	require.NoError(tb, enc.Encode(shards))

	blocks := make([][]byte, total)
	for i := range blocks {
		blocks[i] = shards[i][:erasure_coding.InternalBlockLength(int64(len(data)), policy.CellSize, policy.DataUnits, i)]
	}
	return blocks
}

type peerBehavior struct {
	// delay is applied after the read handshake, before any data flows
	delay time.Duration
	// corrupt flips data bytes while sending checksums of the clean bytes
	corrupt bool
}

// startBlockPeer serves read-block requests for the given internal blocks,
// keyed by block id.
func startBlockPeer(tb testing.TB, blocks map[uint64][]byte, behavior peerBehavior) string {
	tb.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(tb, err)
	tb.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveBlockRead(conn, blocks, behavior)
		}
	}()
	return ln.Addr().String()
}

func serveBlockRead(conn net.Conn, blocks map[uint64][]byte, behavior peerBehavior) {
	defer conn.Close()

	op, body, err := datatransfer.ReadRequestFrame(conn)
	if err != nil || op != datatransfer.OpReadBlock {
		return
	}
	req, err := datatransfer.ParseReadBlockRequest(body)
	if err != nil {
		return
	}
	data, ok := blocks[req.Block.BlockId]
	if !ok || req.Offset > int64(len(data)) {
		datatransfer.WriteReadResponse(conn, datatransfer.StatusErrorNotFound, datatransfer.Checksum{})
		return
	}

	checksum := datatransfer.NewDefaultChecksum()
	if err := datatransfer.WriteReadResponse(conn, datatransfer.StatusSuccess, checksum); err != nil {
		return
	}
	if behavior.delay > 0 {
		time.Sleep(behavior.delay)
	}

	out := bufio.NewWriter(conn)
	payload := data[req.Offset:]
	offset := req.Offset
	seqno := int64(0)
	const packetDataLen = 8 * 1024
	sums := make([]byte, checksum.ChunkCount(packetDataLen)*checksum.Size())
	for len(payload) > 0 {
		n := packetDataLen
		if n > len(payload) {
			n = len(payload)
		}
		clean := payload[:n]
		ckLen := checksum.CalculateChunkedSums(clean, sums)
		chunk := clean
		if behavior.corrupt {
			chunk = append([]byte(nil), clean...)
			chunk[0] ^= 0xff
		}
		header := datatransfer.PacketHeader{OffsetInBlock: offset, Seqno: seqno}
		if err := datatransfer.WritePacket(out, header, sums[:ckLen], chunk); err != nil {
			return
		}
		payload = payload[n:]
		offset += int64(n)
		seqno++
	}
	datatransfer.WritePacket(out, datatransfer.PacketHeader{OffsetInBlock: offset, Seqno: seqno, LastPacket: true}, nil, nil)
	out.Flush()
}

type receivedPacket struct {
	header datatransfer.PacketHeader
	data   []byte
}

// targetRecorder collects what a target peer received from the engine.
type targetRecorder struct {
	mu        sync.Mutex
	handshake *datatransfer.WriteBlockRequest
	packets   []receivedPacket
	done      chan struct{}
}

func newTargetRecorder() *targetRecorder {
	return &targetRecorder{done: make(chan struct{})}
}

func (r *targetRecorder) Handshake() *datatransfer.WriteBlockRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handshake
}

func (r *targetRecorder) Packets() []receivedPacket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]receivedPacket(nil), r.packets...)
}

// Data reassembles the received payload bytes in packet order.
func (r *targetRecorder) Data() []byte {
	var buf []byte
	for _, p := range r.Packets() {
		buf = append(buf, p.data...)
	}
	return buf
}

func (r *targetRecorder) Terminated() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// startTargetPeer accepts one write-block stream and records it. With
// dieAfterHandshake the connection is reset right after the request, which
// the engine must treat as a dead target.
func startTargetPeer(tb testing.TB, recorder *targetRecorder, dieAfterHandshake bool) string {
	tb.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(tb, err)
	tb.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveBlockWrite(conn, recorder, dieAfterHandshake)
		}
	}()
	return ln.Addr().String()
}

func serveBlockWrite(conn net.Conn, recorder *targetRecorder, dieAfterHandshake bool) {
	defer conn.Close()

	op, body, err := datatransfer.ReadRequestFrame(conn)
	if err != nil || op != datatransfer.OpWriteBlock {
		return
	}
	req, err := datatransfer.ParseWriteBlockRequest(body)
	if err != nil {
		return
	}
	recorder.mu.Lock()
	recorder.handshake = req
	recorder.mu.Unlock()

	if dieAfterHandshake {
		if tcp, ok := conn.(*net.TCPConn); ok {
			tcp.SetLinger(0)
		}
		return
	}

	for {
		header, _, data, err := datatransfer.ReceivePacket(conn)
		if err != nil {
			return
		}
		recorder.mu.Lock()
		recorder.packets = append(recorder.packets, receivedPacket{header: header, data: data})
		recorder.mu.Unlock()
		if header.LastPacket {
			close(recorder.done)
			return
		}
	}
}

// fakeController records corruption reports in memory.
type fakeController struct {
	mu      sync.Mutex
	records []cluster.CorruptionRecord
}

func (f *fakeController) ReportCorruptedBlocks(ctx context.Context, report *cluster.CorruptedBlocks) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, report.Entries()...)
	return nil
}

func (f *fakeController) Records() []cluster.CorruptionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cluster.CorruptionRecord(nil), f.records...)
}

func waitFor(tb testing.TB, timeout time.Duration, what string, cond func() bool) {
	tb.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	tb.Fatalf("timed out waiting for %s", what)
}
