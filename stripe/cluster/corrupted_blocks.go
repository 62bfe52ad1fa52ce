package cluster

import (
	"sync"

	"github.com/stripefs/stripefs/stripe/storage"
)

// CorruptedBlocks accumulates (block, peer) pairs whose reads failed
// checksum verification during one scheduler iteration. The controller uses
// the report to invalidate replicas. Safe for use from concurrent reads.
type CorruptedBlocks struct {
	mu            sync.Mutex
	corruptionMap map[storage.ExtendedBlock][]string
}

func NewCorruptedBlocks() *CorruptedBlocks {
	return &CorruptedBlocks{}
}

func (c *CorruptedBlocks) Add(block storage.ExtendedBlock, peer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.corruptionMap == nil {
		c.corruptionMap = make(map[storage.ExtendedBlock][]string)
	}
	for _, known := range c.corruptionMap[block] {
		if known == peer {
			return
		}
	}
	c.corruptionMap[block] = append(c.corruptionMap[block], peer)
}

func (c *CorruptedBlocks) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.corruptionMap) == 0
}

// Entries returns the collected records.
func (c *CorruptedBlocks) Entries() []CorruptionRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	var records []CorruptionRecord
	for block, peers := range c.corruptionMap {
		for _, peer := range peers {
			records = append(records, CorruptionRecord{
				PoolId:     block.PoolId,
				BlockId:    block.BlockId,
				Generation: block.Generation,
				Peer:       peer,
			})
		}
	}
	return records
}

// CorruptionRecord is one (block, peer) pair in a corruption report.
type CorruptionRecord struct {
	PoolId     string `json:"poolId"`
	BlockId    uint64 `json:"blockId"`
	Generation uint64 `json:"generation"`
	Peer       string `json:"peer"`
}
