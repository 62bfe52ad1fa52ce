package erasure_coding

import (
	"github.com/stripefs/stripefs/stripe/storage"
)

// InternalBlockLength returns the byte length of column index of a striped
// group holding dataSize bytes. Data columns share full stripes equally; the
// last, possibly partial, stripe fills cells round-robin. A parity column is
// as long as column 0.
func InternalBlockLength(dataSize int64, cellSize int, dataUnits int, index int) int64 {
	stripeSize := int64(cellSize) * int64(dataUnits)
	if dataSize == 0 {
		return 0
	}

	lastStripeDataLen := dataSize % stripeSize
	if lastStripeDataLen == 0 {
		return dataSize / int64(dataUnits)
	}

	numStripes := (dataSize-1)/stripeSize + 1
	return (numStripes-1)*int64(cellSize) +
		lastCellSize(lastStripeDataLen, int64(cellSize), dataUnits, index)
}

func lastCellSize(size int64, cellSize int64, dataUnits int, index int) int64 {
	if index < dataUnits {
		// a parity column is as long as column 0
		size -= int64(index) * cellSize
		if size < 0 {
			size = 0
		}
	}
	if size > cellSize {
		return cellSize
	}
	return size
}

// ConstructInternalBlock derives the identity of column index from the group
// identity. Internal block ids are the group id plus the column index, so
// both ends of a transfer agree without extra coordination.
func ConstructInternalBlock(group storage.ExtendedBlock, cellSize int, dataUnits int, index int) storage.ExtendedBlock {
	return storage.ExtendedBlock{
		PoolId:     group.PoolId,
		BlockId:    group.BlockId + uint64(index),
		Generation: group.Generation,
		NumBytes:   InternalBlockLength(group.NumBytes, cellSize, dataUnits, index),
	}
}
