package reconstruction

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/golang/glog"

	"github.com/stripefs/stripefs/stripe/cluster"
	"github.com/stripefs/stripefs/stripe/datatransfer"
	"github.com/stripefs/stripefs/stripe/security"
	"github.com/stripefs/stripefs/stripe/stats"
	"github.com/stripefs/stripefs/stripe/storage"
	"github.com/stripefs/stripefs/stripe/storage/erasure_coding"
	"github.com/stripefs/stripefs/stripe/util"
)

const blockTokenLifetime = 10 * time.Minute

// readResult is one completed per-slice read, keyed back to its job.
type readResult struct {
	jobId int64
	n     int
	err   error
}

// pendingRead tracks one submitted read job. A discarded job's completion is
// ignored; it only frees the reader's buffer for reuse.
type pendingRead struct {
	slot      int
	discarded bool
}

// reconstructionTask rebuilds the missing internal blocks of one striped
// group and streams them to the target peers.
//
//	| <- Striped Block Group -> |
//	 blk_0      blk_1       blk_2(*)   blk_3   ...
//	   |          |           |          |
//	   v          v           v          v
//	+------+   +------+   +------+   +------+
//	|cell_0|   |cell_1|   |cell_2|   |cell_3|  ...
//	+------+   +------+   +------+   +------+
//	|cell_4|   |cell_5|   |cell_6|   |cell_7|  ...
//	+------+   +------+   +------+   +------+
//
// Each round reconstructs one buffer-sized window: read the window from the
// minimum number of sources, decode the missing columns, push the decoded
// bytes to the targets. The best sources are remembered between rounds and
// replaced when they turn out corrupt or slow. Like continuous block
// replication, the packets sent to targets are never acknowledged.
type reconstructionTask struct {
	worker *Worker

	dataUnits   int
	parityUnits int
	cellSize    int

	blockGroup         storage.ExtendedBlock
	minRequiredSources int
	positionInBlock    int64

	liveIndices []int
	sources     []string

	stripedReaders []*stripedReader

	zeroStripeIndices []int
	zeroStripeBuffers [][]byte

	targets              []string
	targetStorageClasses []string
	targetIndices        []int
	targetBuffers        [][]byte
	targetLimits         []int
	targetConns          []*util.Conn
	targetSenders        []*datatransfer.Sender
	blockOffset4Targets  []int64
	seqNo4Targets        []int64
	targetsStatus        []bool

	hasValidTargets bool

	decoder *erasure_coding.Decoder

	// checksum configuration lifted from the first successful reader; the
	// read buffer size is rounded down to a checksum chunk multiple.
	checksum           datatransfer.Checksum
	bufferSize         int
	maxChunksPerPacket int
	checksumBuf        []byte

	completions chan readResult
	pending     map[int64]*pendingRead
	cancels     map[int64]func()
	nextJobId   int64
}

func (w *Worker) newReconstructionTask(order BlockReconstructionOrder) (*reconstructionTask, error) {
	policy := order.Policy
	if policy.DataUnits <= 0 || policy.ParityUnits <= 0 || policy.CellSize <= 0 {
		return nil, fmt.Errorf("invalid erasure coding policy %s", policy)
	}

	minRequiredSources := policy.MinRequiredSources(order.Block.NumBytes)
	if len(order.LiveIndices) < minRequiredSources {
		return nil, fmt.Errorf("no enough live striped blocks: %d of %d required", len(order.LiveIndices), minRequiredSources)
	}
	if len(order.LiveIndices) != len(order.Sources) {
		return nil, fmt.Errorf("live block indices and source peers should match: %d != %d", len(order.LiveIndices), len(order.Sources))
	}
	if len(order.Targets) != len(order.TargetStorageClasses) {
		return nil, fmt.Errorf("target peers and storage classes should match: %d != %d", len(order.Targets), len(order.TargetStorageClasses))
	}
	if len(order.Targets) > policy.ParityUnits {
		return nil, fmt.Errorf("too much missed striped blocks: %d targets, %d parity units", len(order.Targets), policy.ParityUnits)
	}

	t := &reconstructionTask{
		worker:               w,
		dataUnits:            policy.DataUnits,
		parityUnits:          policy.ParityUnits,
		cellSize:             policy.CellSize,
		blockGroup:           order.Block,
		minRequiredSources:   minRequiredSources,
		liveIndices:          order.LiveIndices,
		sources:              order.Sources,
		targets:              order.Targets,
		targetStorageClasses: order.TargetStorageClasses,
		completions:          make(chan readResult, 2*len(order.Sources)+4),
		pending:              make(map[int64]*pendingRead),
		cancels:              make(map[int64]func()),
	}

	// classify every missing internal index: reconstruct it if it has bytes,
	// otherwise it contributes an all-zeros column to the decode.
	live := make([]bool, policy.TotalUnits())
	for _, idx := range order.LiveIndices {
		if idx < 0 || idx >= policy.TotalUnits() {
			return nil, fmt.Errorf("live block index %d out of range for policy %s", idx, policy)
		}
		live[idx] = true
	}
	for i := 0; i < policy.TotalUnits(); i++ {
		if live[i] {
			continue
		}
		if t.getBlockLen(i) > 0 {
			if len(t.targetIndices) < len(t.targets) {
				t.targetIndices = append(t.targetIndices, i)
				t.hasValidTargets = true
			}
		} else {
			t.zeroStripeIndices = append(t.zeroStripeIndices, i)
		}
	}

	// drop trailing targets no missing index was found for
	n := len(t.targetIndices)
	t.targets = t.targets[:n]
	t.targetStorageClasses = t.targetStorageClasses[:n]
	t.targetBuffers = make([][]byte, n)
	t.targetLimits = make([]int, n)
	t.targetConns = make([]*util.Conn, n)
	t.targetSenders = make([]*datatransfer.Sender, n)
	t.blockOffset4Targets = make([]int64, n)
	t.seqNo4Targets = make([]int64, n)
	t.targetsStatus = make([]bool, n)

	return t, nil
}

func (t *reconstructionTask) getBlock(i int) storage.ExtendedBlock {
	return erasure_coding.ConstructInternalBlock(t.blockGroup, t.cellSize, t.dataUnits, i)
}

func (t *reconstructionTask) getBlockLen(i int) int64 {
	return erasure_coding.InternalBlockLength(t.blockGroup.NumBytes, t.cellSize, t.dataUnits, i)
}

// run executes the task end to end on one task pool worker.
func (t *reconstructionTask) run(ctx context.Context) {
	stats.XmitsInProgress.Inc()
	defer stats.XmitsInProgress.Dec()
	defer t.releaseResources()

	if err := t.reconstructAndTransfer(ctx); err != nil {
		stats.ReconstructionTaskCounter.WithLabelValues("failure").Inc()
		glog.Warningf("Failed to reconstruct striped block: %s: %v", t.blockGroup, err)
		return
	}
	stats.ReconstructionTaskCounter.WithLabelValues("success").Inc()
}

func (t *reconstructionTask) reconstructAndTransfer(ctx context.Context) error {
	// Seed the success list: try sources in order until the minimum number
	// of remote channels is open. The list carries over between windows so
	// good sources stay sticky.
	success := make([]int, 0, t.minRequiredSources)
	for i := 0; i < len(t.sources) && len(success) < t.minRequiredSources; i++ {
		reader := t.addStripedReader(i, 0)
		if reader.reader != nil {
			success = append(success, i)
		}
	}
	if len(success) < t.minRequiredSources {
		return fmt.Errorf("can't find minimum sources required by reconstruction, block id: %d", t.blockGroup.BlockId)
	}

	for range t.zeroStripeIndices {
		t.zeroStripeBuffers = append(t.zeroStripeBuffers, make([]byte, t.bufferSize))
	}
	for i := range t.targetBuffers {
		t.targetBuffers[i] = make([]byte, t.bufferSize)
	}

	if t.initTargetStreams() == 0 {
		return fmt.Errorf("all targets are failed")
	}

	var maxTargetLength int64
	for _, targetIndex := range t.targetIndices {
		if blockLen := t.getBlockLen(targetIndex); blockLen > maxTargetLength {
			maxTargetLength = blockLen
		}
	}

	for t.positionInBlock < maxTargetLength {
		toReconstruct := t.bufferSize
		if remaining := maxTargetLength - t.positionInBlock; int64(toReconstruct) > remaining {
			toReconstruct = int(remaining)
		}

		// step1: read the window from the minimum sources required. The
		// corruption report goes to the controller whether or not the read
		// round succeeded.
		corrupted := cluster.NewCorruptedBlocks()
		newSuccess, readErr := t.readMinimumStripedData(ctx, success, toReconstruct, corrupted)
		t.reportCorruptedBlocks(ctx, corrupted)
		if readErr != nil {
			return readErr
		}
		success = newSuccess

		// step2: decode the missing columns
		if err := t.reconstructTargets(success, toReconstruct); err != nil {
			return err
		}

		// step3: transfer to targets
		t.transferData2Targets()
		aliveTargets := 0
		for _, alive := range t.targetsStatus {
			if alive {
				aliveTargets++
			}
		}
		if aliveTargets == 0 {
			return fmt.Errorf("transfer failed for all targets")
		}

		t.clearBuffers()
		t.positionInBlock += int64(toReconstruct)
	}

	t.endTargetBlocks()
	return nil
}

// addStripedReader allocates the reader for source i and tries to open its
// remote channel at offsetInBlock. Readers keep the same order as sources.
// The checksum configuration and the effective buffer size come from the
// first channel that opens.
func (t *reconstructionTask) addStripedReader(i int, offsetInBlock int64) *stripedReader {
	block := t.getBlock(t.liveIndices[i])
	reader := &stripedReader{
		index:  t.liveIndices[i],
		block:  block,
		source: t.sources[i],
	}
	t.stripedReaders = append(t.stripedReaders, reader)

	if br := t.newBlockReader(block, offsetInBlock, t.sources[i]); br != nil {
		t.initChecksumAndBufferSize(br)
		reader.reader = br
	}
	if t.bufferSize > 0 {
		reader.ensureBuffer(t.bufferSize)
	}
	return reader
}

func (t *reconstructionTask) newBlockReader(block storage.ExtendedBlock, offsetInBlock int64, source string) *datatransfer.RemoteBlockReader {
	if offsetInBlock >= block.NumBytes {
		return nil
	}
	token := security.GenBlockAccessToken(t.worker.signingKey, block.String(), security.AccessModeRead, blockTokenLifetime)
	br, err := datatransfer.NewRemoteBlockReader(source, block, offsetInBlock, token, t.worker.clientName, t.worker.socketTimeout)
	if err != nil {
		glog.V(3).Infof("Exception while creating remote block reader, peer %s: %v", source, err)
		return nil
	}
	return br
}

func (t *reconstructionTask) initChecksumAndBufferSize(br *datatransfer.RemoteBlockReader) {
	if t.checksum.BytesPerChecksum == 0 {
		t.checksum = br.Checksum()
		bytesPerChecksum := t.checksum.BytesPerChecksum
		// the buffer size is flat to divide bytesPerChecksum
		readBufferSize := t.worker.readBufferSize
		if readBufferSize < bytesPerChecksum {
			t.bufferSize = bytesPerChecksum
		} else {
			t.bufferSize = readBufferSize - readBufferSize%bytesPerChecksum
		}

		chunkSize := bytesPerChecksum + t.checksum.Size()
		t.maxChunksPerPacket = (datatransfer.MaxPacketSize - datatransfer.MaxPacketHeaderLen) / chunkSize
		if t.maxChunksPerPacket < 1 {
			t.maxChunksPerPacket = 1
		}
		t.checksumBuf = make([]byte, t.checksum.Size()*(t.bufferSize/bytesPerChecksum))
	} else if br.Checksum() != t.checksum {
		glog.Warningf("checksum mismatch across sources of %s: %+v != %+v", t.blockGroup, br.Checksum(), t.checksum)
	}
}

// getReadLength clamps a source's read to what its internal block still has
// within this window.
func (t *reconstructionTask) getReadLength(index int, reconstructLength int) int {
	remaining := t.getBlockLen(index) - t.positionInBlock
	if remaining <= 0 {
		return 0
	}
	if remaining < int64(reconstructLength) {
		return int(remaining)
	}
	return reconstructLength
}

// readMinimumStripedData reads one window from the minimum number of
// sources. It first tries the carried-over success list; corrupt, failed or
// slow readers are routed around via scheduleNewRead. The first
// minRequiredSources successful completions win, in completion order.
func (t *reconstructionTask) readMinimumStripedData(ctx context.Context, success []int, reconstructLength int, corrupted *cluster.CorruptedBlocks) ([]int, error) {
	if reconstructLength < 0 || reconstructLength > t.bufferSize {
		return nil, fmt.Errorf("invalid reconstruct length %d", reconstructLength)
	}

	newSuccess := make([]int, 0, t.minRequiredSources)
	used := make([]bool, len(t.sources))

	for _, j := range success {
		reader := t.stripedReaders[j]
		toRead := t.getReadLength(t.liveIndices[j], reconstructLength)
		if toRead > 0 {
			t.submitRead(j, toRead, corrupted)
		} else {
			// source exhausted for this window; no real read needed
			reader.ensureBuffer(t.bufferSize)
			reader.n = 0
			newSuccess = append(newSuccess, j)
		}
		used[j] = true
	}

	for len(newSuccess) < t.minRequiredSources && t.countPending() > 0 {
		timer := time.NewTimer(t.worker.stripedReadTimeout)
		select {
		case result := <-t.completions:
			timer.Stop()
			p, ok := t.pending[result.jobId]
			if !ok {
				continue
			}
			delete(t.pending, result.jobId)
			delete(t.cancels, result.jobId)
			reader := t.stripedReaders[p.slot]
			reader.busy = false
			if p.discarded {
				continue
			}

			resultIndex := -1
			if result.err == nil {
				reader.n = result.n
				resultIndex = p.slot
			} else {
				// a failed source is not read again this iteration; try to
				// route around it
				stats.StripedReadFailures.Inc()
				reader.closeChannel()
				resultIndex = t.scheduleNewRead(used, reconstructLength, corrupted)
			}
			if resultIndex >= 0 {
				newSuccess = append(newSuccess, resultIndex)
			}

		case <-timer.C:
			// slow read; it may still finish and count, but line up a
			// replacement in the meantime
			stats.StripedReadTimeouts.Inc()
			if resultIndex := t.scheduleNewRead(used, reconstructLength, corrupted); resultIndex >= 0 {
				newSuccess = append(newSuccess, resultIndex)
			}

		case <-ctx.Done():
			timer.Stop()
			glog.V(0).Infof("Read data interrupted: %v", ctx.Err())
			t.cancelReads()
			return nil, fmt.Errorf("read data interrupted: %v", ctx.Err())
		}
	}

	// cancel whatever is still in flight once enough sources answered
	t.cancelReads()

	if len(newSuccess) < t.minRequiredSources {
		return nil, fmt.Errorf("can't read data from minimum number of sources required by reconstruction, block id: %d", t.blockGroup.BlockId)
	}
	return newSuccess, nil
}

func (t *reconstructionTask) countPending() int {
	n := 0
	for _, p := range t.pending {
		if !p.discarded {
			n++
		}
	}
	return n
}

// submitRead hands a read of exactly toRead bytes for reader slot j to the
// reader pool. The completion arrives on t.completions keyed by job id.
func (t *reconstructionTask) submitRead(j int, toRead int, corrupted *cluster.CorruptedBlocks) {
	reader := t.stripedReaders[j]
	reader.ensureBuffer(t.bufferSize)
	reader.busy = true

	jobId := t.nextJobId
	t.nextJobId++
	t.pending[jobId] = &pendingRead{slot: j}

	br := reader.reader
	buf := reader.buf[:toRead]
	block := reader.block
	source := reader.source
	completions := t.completions
	t.cancels[jobId] = func() {
		// closing the channel unblocks the job; the reader is reopened if
		// it is ever revisited
		br.Close()
	}

	t.worker.readerPool.Execute(func() {
		n, err := readSlice(br, buf)
		if err != nil {
			var checksumErr *datatransfer.ChecksumError
			if errors.As(err, &checksumErr) {
				glog.Warningf("Found Checksum error for %s from %s at %d", block, source, checksumErr.Offset)
				corrupted.Add(block, source)
			} else {
				glog.V(0).Infof("%v", err)
			}
		}
		completions <- readResult{jobId: jobId, n: n, err: err}
	})
}

// scheduleNewRead lines up a replacement when a success list slot is
// vacated. It prefers a source never tried before, then revisits a known
// reader that sat out this iteration. Returns the reader slot if the source
// is already exhausted for this window (instant satisfaction), otherwise -1
// with the real read scheduled or no candidate found.
func (t *reconstructionTask) scheduleNewRead(used []bool, reconstructLength int, corrupted *cluster.CorruptedBlocks) int {
	var reader *stripedReader
	m := -1
	toRead := 0

	// step1: try a source never read before
	for i := len(t.stripedReaders); reader == nil && i < len(t.sources); i++ {
		r := t.addStripedReader(i, t.positionInBlock)
		toRead = t.getReadLength(t.liveIndices[i], reconstructLength)
		if toRead <= 0 {
			r.ensureBuffer(t.bufferSize)
			used[i] = true
			return i
		}
		if r.reader != nil {
			reader = r
			m = i
		}
	}

	// step2: revisit a reader that is not in this iteration's success list
	for i := 0; reader == nil && i < len(t.stripedReaders); i++ {
		if used[i] {
			continue
		}
		r := t.stripedReaders[i]
		if r.busy {
			continue
		}
		toRead = t.getReadLength(t.liveIndices[i], reconstructLength)
		if toRead <= 0 {
			r.ensureBuffer(t.bufferSize)
			used[i] = true
			r.n = 0
			return i
		}
		r.closeChannel()
		if br := t.newBlockReader(r.block, t.positionInBlock, r.source); br != nil {
			r.reader = br
			r.n = 0
			reader = r
			m = i
		}
	}

	// step3: schedule the real read
	if reader != nil {
		t.submitRead(m, toRead, corrupted)
		used[m] = true
	}
	return -1
}

// cancelReads discards all in-flight reads best-effort. Late completions
// only release their reader's buffer.
func (t *reconstructionTask) cancelReads() {
	for jobId, p := range t.pending {
		if p.discarded {
			continue
		}
		p.discarded = true
		if cancel := t.cancels[jobId]; cancel != nil {
			cancel()
		}
		delete(t.cancels, jobId)
	}
}

// drainCompletions releases readers whose discarded jobs have since
// finished, without blocking.
func (t *reconstructionTask) drainCompletions() {
	for {
		select {
		case result := <-t.completions:
			if p, ok := t.pending[result.jobId]; ok {
				t.stripedReaders[p.slot].busy = false
				delete(t.pending, result.jobId)
				delete(t.cancels, result.jobId)
			}
		default:
			return
		}
	}
}

// reconstructTargets decodes the window: the success set's buffers padded to
// the window size plus the zero stripe columns go in, the currently alive
// target columns come out.
func (t *reconstructionTask) reconstructTargets(success []int, toReconstructLen int) error {
	t.drainCompletions()

	if t.decoder == nil {
		decoder, err := erasure_coding.NewDecoder(t.dataUnits, t.parityUnits)
		if err != nil {
			return err
		}
		t.decoder = decoder
	}

	inputs := make([][]byte, t.dataUnits+t.parityUnits)
	for _, j := range success {
		reader := t.stripedReaders[j]
		zeroFill(reader.buf[reader.n:toReconstructLen])
		inputs[reader.index] = reader.buf[:toReconstructLen]
	}
	for k, index := range t.zeroStripeIndices {
		inputs[index] = t.zeroStripeBuffers[k][:toReconstructLen]
	}

	var erasedIndices []int
	var outputs [][]byte
	for i := range t.targets {
		if t.targetsStatus[i] {
			erasedIndices = append(erasedIndices, t.targetIndices[i])
			outputs = append(outputs, t.targetBuffers[i][:toReconstructLen])
		}
	}

	if err := t.decoder.Decode(inputs, erasedIndices, outputs); err != nil {
		return fmt.Errorf("decode window at %d: %v", t.positionInBlock, err)
	}

	// the uneven last stripe: trim targets whose internal block ends inside
	// this window
	var reconstructed int64
	for i := range t.targets {
		if !t.targetsStatus[i] {
			continue
		}
		limit := toReconstructLen
		remaining := t.getBlockLen(t.targetIndices[i]) - t.positionInBlock
		if remaining <= 0 {
			limit = 0
		} else if remaining < int64(toReconstructLen) {
			limit = int(remaining)
		}
		t.targetLimits[i] = limit
		reconstructed += int64(limit)
	}
	stats.ReconstructedBytes.Add(float64(reconstructed))
	return nil
}

func zeroFill(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// transferData2Targets pushes this window's decoded bytes to every alive
// target as checksummed packets. Returns the number of packets written; a
// target that fails is dead for the rest of the task.
func (t *reconstructionTask) transferData2Targets() int {
	npackets := 0
	for i := range t.targets {
		if !t.targetsStatus[i] {
			continue
		}
		limit := t.targetLimits[i]
		if limit == 0 {
			continue
		}

		data := t.targetBuffers[i][:limit]
		ckLen := t.checksum.CalculateChunkedSums(data, t.checksumBuf)
		sums := t.checksumBuf[:ckLen]

		maxBytesToPacket := t.maxChunksPerPacket * t.checksum.BytesPerChecksum
		pos, ckOff := 0, 0
		var sendErr error
		for pos < len(data) {
			toWrite := len(data) - pos
			if toWrite > maxBytesToPacket {
				toWrite = maxBytesToPacket
			}
			ckN := t.checksum.ChunkCount(toWrite) * t.checksum.Size()
			header := datatransfer.PacketHeader{
				OffsetInBlock: t.blockOffset4Targets[i],
				Seqno:         t.seqNo4Targets[i],
			}
			if sendErr = t.targetSenders[i].WritePacket(header, sums[ckOff:ckOff+ckN], data[pos:pos+toWrite]); sendErr != nil {
				break
			}
			t.seqNo4Targets[i]++
			t.blockOffset4Targets[i] += int64(toWrite)
			pos += toWrite
			ckOff += ckN
			npackets++
		}
		if sendErr == nil {
			sendErr = t.targetSenders[i].Flush()
		}
		if sendErr != nil {
			glog.Warningf("transfer to target %s failed: %v", t.targets[i], sendErr)
			t.targetsStatus[i] = false
		}
	}
	return npackets
}

func (t *reconstructionTask) clearBuffers() {
	for _, reader := range t.stripedReaders {
		reader.n = 0
	}
	for i := range t.targetLimits {
		t.targetLimits[i] = 0
	}
}

// endTargetBlocks sends an empty terminator packet on each still-alive
// target channel and flushes it. Dead targets stay silent.
func (t *reconstructionTask) endTargetBlocks() {
	for i := range t.targets {
		if !t.targetsStatus[i] {
			continue
		}
		header := datatransfer.PacketHeader{
			OffsetInBlock: t.blockOffset4Targets[i],
			Seqno:         t.seqNo4Targets[i],
			LastPacket:    true,
		}
		t.seqNo4Targets[i]++
		if err := t.targetSenders[i].WritePacket(header, nil, nil); err != nil {
			glog.Warningf("terminating target %s failed: %v", t.targets[i], err)
			continue
		}
		if err := t.targetSenders[i].Flush(); err != nil {
			glog.Warningf("terminating target %s failed: %v", t.targets[i], err)
		}
	}
}

// initTargetStreams connects every target, performs the write-block
// handshake and records which targets are usable.
func (t *reconstructionTask) initTargetStreams() int {
	nsuccess := 0
	for i := range t.targets {
		block := t.getBlock(t.targetIndices[i])
		sock, err := net.DialTimeout("tcp", t.targets[i], t.worker.socketTimeout)
		if err != nil {
			glog.Warningf("connect to target %s: %v", t.targets[i], err)
			continue
		}
		conn := util.NewConn(sock, t.worker.socketTimeout)
		sender := datatransfer.NewSender(conn)

		token := security.GenBlockAccessToken(t.worker.signingKey, block.String(), security.AccessModeWrite, blockTokenLifetime)
		req := &datatransfer.WriteBlockRequest{
			Block:        block,
			StorageClass: t.targetStorageClasses[i],
			AccessToken:  token,
			Source:       t.worker.sourceDescriptor,
			Stage:        datatransfer.StagePipelineSetupCreate,
			Checksum:     t.checksum,
		}
		if err := sender.WriteBlock(req); err != nil {
			glog.Warningf("write block request to target %s: %v", t.targets[i], err)
			conn.Close()
			continue
		}

		t.targetConns[i] = conn
		t.targetSenders[i] = sender
		t.targetsStatus[i] = true
		nsuccess++
	}
	return nsuccess
}

func (t *reconstructionTask) reportCorruptedBlocks(ctx context.Context, corrupted *cluster.CorruptedBlocks) {
	if t.worker.controller == nil || corrupted.IsEmpty() {
		return
	}
	if err := t.worker.controller.ReportCorruptedBlocks(ctx, corrupted); err != nil {
		glog.Warningf("reporting corrupted blocks of %s: %v", t.blockGroup, err)
	}
}

// releaseResources closes every reader channel and target stream. Runs on
// every exit path.
func (t *reconstructionTask) releaseResources() {
	t.cancelReads()
	for _, reader := range t.stripedReaders {
		reader.closeChannel()
	}
	for i := range t.targetConns {
		if t.targetConns[i] != nil {
			t.targetConns[i].Close()
		}
	}
}
