package storage

import "fmt"

// ExtendedBlock identifies one block within a block pool, together with its
// byte length. For a striped group the id is the group id; internal blocks
// derive their ids from it.
type ExtendedBlock struct {
	PoolId     string
	BlockId    uint64
	Generation uint64
	NumBytes   int64
}

func (b ExtendedBlock) String() string {
	return fmt.Sprintf("%s:blk_%d_%d", b.PoolId, b.BlockId, b.Generation)
}
