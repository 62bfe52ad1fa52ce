package reconstruction

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/stripefs/stripefs/stripe/cluster"
	"github.com/stripefs/stripefs/stripe/security"
	"github.com/stripefs/stripefs/stripe/util"
)

// Worker handles striped block reconstruction orders from the cluster
// controller. It hosts one pool for whole reconstruction tasks and one
// shared pool for the per-slice reads those tasks fan out.
type Worker struct {
	controller       cluster.Client
	signingKey       security.SigningKey
	sourceDescriptor string
	clientName       string

	taskPool   *taskPool
	readerPool *readerPool

	stripedReadTimeout time.Duration
	readBufferSize     int
	socketTimeout      time.Duration

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

// NewWorker builds the two pools from configuration. controller may be nil,
// in which case corruption reports are dropped. sourceDescriptor identifies
// this node in write-block requests.
func NewWorker(config util.Configuration, controller cluster.Client, signingKey security.SigningKey, sourceDescriptor string) *Worker {

	config.SetDefault("reconstruction.striped-read.timeout-ms", 5000)
	config.SetDefault("reconstruction.striped-read.threads", 20)
	config.SetDefault("reconstruction.striped-read.buffer-size", 64*1024)
	config.SetDefault("reconstruction.striped-blk.threads", 8)
	config.SetDefault("node.socket-timeout-ms", 60000)

	readThreads := config.GetInt("reconstruction.striped-read.threads")
	taskThreads := config.GetInt("reconstruction.striped-blk.threads")
	readBufferSize := config.GetInt("reconstruction.striped-read.buffer-size")

	glog.V(3).Infof("Using striped reads; pool threads=%d", readThreads)
	glog.V(3).Infof("Using striped block reconstruction; pool threads=%d", taskThreads)

	w := &Worker{
		controller:         controller,
		signingKey:         signingKey,
		sourceDescriptor:   sourceDescriptor,
		clientName:         "reconstruction-" + uuid.NewString(),
		taskPool:           newTaskPool(taskThreads),
		readerPool:         newReaderPool(readThreads),
		stripedReadTimeout: time.Duration(config.GetInt("reconstruction.striped-read.timeout-ms")) * time.Millisecond,
		readBufferSize:     readBufferSize,
		socketTimeout:      time.Duration(config.GetInt("node.socket-timeout-ms")) * time.Millisecond,
	}
	w.rootCtx, w.rootCancel = context.WithCancel(context.Background())

	glog.V(1).Infof("Reconstruction worker ready: read buffer %s, read timeout %s",
		humanize.IBytes(uint64(readBufferSize)), w.stripedReadTimeout)

	return w
}

// ProcessReconstructionTasks accepts a batch of reconstruction orders. Tasks
// without a valid target are dropped with a warning; a bad order never
// aborts the rest of the batch.
func (w *Worker) ProcessReconstructionTasks(orders []BlockReconstructionOrder) {
	for _, order := range orders {
		task, err := w.newReconstructionTask(order)
		if err != nil {
			glog.Warningf("Failed to reconstruct striped block %s: %v", order.Block, err)
			continue
		}
		if !task.hasValidTargets {
			glog.Warningf("No missing internal block. Skip reconstruction for task: %s", order.Block)
			continue
		}
		w.taskPool.Submit(func() {
			task.run(w.rootCtx)
		})
	}
}

// Shutdown stops the task pool and interrupts in-flight tasks, which cancel
// their outstanding reads as they unwind. The reader pool keeps no queue or
// idle goroutines, so it needs no shutdown of its own. Best effort: it does
// not wait for tasks to unwind.
func (w *Worker) Shutdown() {
	w.rootCancel()
	w.taskPool.Shutdown()
}
