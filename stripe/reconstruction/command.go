package reconstruction

import (
	"github.com/stripefs/stripefs/stripe/storage"
	"github.com/stripefs/stripefs/stripe/storage/erasure_coding"
)

// BlockReconstructionOrder is one reconstruction command from the cluster
// controller: rebuild the missing internal blocks of a striped group from
// the surviving ones and ship them to the target peers.
//
// LiveIndices and Sources are parallel: Sources[i] holds internal block
// LiveIndices[i]. Targets and TargetStorageClasses are parallel as well; the
// missing internal indices are derived, not listed.
type BlockReconstructionOrder struct {
	Block                storage.ExtendedBlock
	Policy               erasure_coding.Policy
	LiveIndices          []int
	Sources              []string
	Targets              []string
	TargetStorageClasses []string
}
