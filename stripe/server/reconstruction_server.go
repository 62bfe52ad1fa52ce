package server

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stripefs/stripefs/stripe/reconstruction"
	"github.com/stripefs/stripefs/stripe/stats"
	"github.com/stripefs/stripefs/stripe/storage"
	"github.com/stripefs/stripefs/stripe/storage/erasure_coding"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReconstructionServer is the worker's HTTP surface: the controller posts
// order batches to it and scrapes the metrics endpoint.
type ReconstructionServer struct {
	worker *reconstruction.Worker
}

// ReconstructionOrderRequest is the JSON form of one reconstruction order.
type ReconstructionOrderRequest struct {
	PoolId               string   `json:"poolId"`
	BlockId              uint64   `json:"blockId"`
	Generation           uint64   `json:"generation"`
	NumBytes             int64    `json:"numBytes"`
	DataUnits            int      `json:"dataUnits"`
	ParityUnits          int      `json:"parityUnits"`
	CellSize             int      `json:"cellSize"`
	LiveIndices          []int    `json:"liveIndices"`
	Sources              []string `json:"sources"`
	Targets              []string `json:"targets"`
	TargetStorageClasses []string `json:"targetStorageClasses"`
}

func (req *ReconstructionOrderRequest) toOrder() reconstruction.BlockReconstructionOrder {
	return reconstruction.BlockReconstructionOrder{
		Block: storage.ExtendedBlock{
			PoolId:     req.PoolId,
			BlockId:    req.BlockId,
			Generation: req.Generation,
			NumBytes:   req.NumBytes,
		},
		Policy: erasure_coding.Policy{
			DataUnits:   req.DataUnits,
			ParityUnits: req.ParityUnits,
			CellSize:    req.CellSize,
		},
		LiveIndices:          req.LiveIndices,
		Sources:              req.Sources,
		Targets:              req.Targets,
		TargetStorageClasses: req.TargetStorageClasses,
	}
}

func NewReconstructionServer(router *mux.Router, worker *reconstruction.Worker) *ReconstructionServer {
	s := &ReconstructionServer{worker: worker}

	router.HandleFunc("/reconstruct", s.reconstructHandler).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.HandlerFor(stats.Gather, promhttp.HandlerOpts{}))

	return s
}

func (s *ReconstructionServer) reconstructHandler(w http.ResponseWriter, r *http.Request) {
	var requests []ReconstructionOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&requests); err != nil {
		http.Error(w, "malformed order batch: "+err.Error(), http.StatusBadRequest)
		return
	}

	orders := make([]reconstruction.BlockReconstructionOrder, 0, len(requests))
	for _, req := range requests {
		orders = append(orders, req.toOrder())
	}
	glog.V(1).Infof("received %d reconstruction orders", len(orders))
	s.worker.ProcessReconstructionTasks(orders)

	w.WriteHeader(http.StatusAccepted)
}
