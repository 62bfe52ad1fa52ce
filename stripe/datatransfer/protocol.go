package datatransfer

// ProtocolVersion is bumped whenever the framing changes incompatibly.
const ProtocolVersion uint16 = 1

type Op byte

const (
	OpWriteBlock Op = 80
	OpReadBlock  Op = 81
)

type Status byte

const (
	StatusSuccess Status = iota
	StatusError
	StatusErrorChecksum
	StatusErrorAccessToken
	StatusErrorNotFound
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusError:
		return "ERROR"
	case StatusErrorChecksum:
		return "ERROR_CHECKSUM"
	case StatusErrorAccessToken:
		return "ERROR_ACCESS_TOKEN"
	case StatusErrorNotFound:
		return "ERROR_NOT_FOUND"
	}
	return "UNKNOWN"
}

// BlockConstructionStage tells the receiving node how to treat an incoming
// block write.
type BlockConstructionStage byte

const (
	// StagePipelineSetupCreate creates a fresh replica of the block.
	StagePipelineSetupCreate BlockConstructionStage = iota
	// StageTransferFinalized pushes a copy of an already finalized replica.
	StageTransferFinalized
)
