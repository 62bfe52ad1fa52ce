package erasure_coding

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Decoder rebuilds erased columns of a striped group from any DataUnits
// surviving columns. Inputs and outputs are equal-length slices; an erased
// column is presented to the codec as a nil shard.
type Decoder struct {
	dataUnits   int
	parityUnits int
	enc         reedsolomon.Encoder
}

func NewDecoder(dataUnits, parityUnits int) (*Decoder, error) {
	enc, err := reedsolomon.New(dataUnits, parityUnits)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder RS(%d,%d): %v", dataUnits, parityUnits, err)
	}
	return &Decoder{
		dataUnits:   dataUnits,
		parityUnits: parityUnits,
		enc:         enc,
	}, nil
}

// Decode rebuilds the erased columns. inputs has TotalUnits entries indexed
// by column; entries for erased columns must be nil. outputs[k] receives the
// rebuilt bytes of column erased[k] and must be no longer than the non-nil
// inputs.
func (d *Decoder) Decode(inputs [][]byte, erased []int, outputs [][]byte) error {
	total := d.dataUnits + d.parityUnits
	if len(inputs) != total {
		return fmt.Errorf("unmatched number of input columns: %d, expecting %d", len(inputs), total)
	}
	if len(erased) != len(outputs) {
		return fmt.Errorf("unmatched erased indices %d and outputs %d", len(erased), len(outputs))
	}

	shards := make([][]byte, total)
	copy(shards, inputs)
	required := make([]bool, total)
	for _, idx := range erased {
		if idx < 0 || idx >= total {
			return fmt.Errorf("erased index %d out of range", idx)
		}
		if shards[idx] != nil {
			return fmt.Errorf("erased column %d has input data", idx)
		}
		required[idx] = true
	}

	if err := d.enc.ReconstructSome(shards, required); err != nil {
		return fmt.Errorf("reconstruct: %v", err)
	}

	for k, idx := range erased {
		n := copy(outputs[k], shards[idx])
		if n < len(outputs[k]) {
			return fmt.Errorf("short decode for column %d: %d of %d bytes", idx, n, len(outputs[k]))
		}
	}
	return nil
}
