package erasure_coding

import "fmt"

// Policy describes one erasure coding layout: dataUnits data columns and
// parityUnits parity columns, striped in cellSize cells.
type Policy struct {
	DataUnits   int
	ParityUnits int
	CellSize    int
}

func (p Policy) TotalUnits() int {
	return p.DataUnits + p.ParityUnits
}

// CellsInGroup returns the number of cells a group of numBytes occupies.
func (p Policy) CellsInGroup(numBytes int64) int {
	return int((numBytes + int64(p.CellSize) - 1) / int64(p.CellSize))
}

// MinRequiredSources returns the number of live columns a decode needs.
// Groups spanning fewer than DataUnits cells need only one column per cell.
func (p Policy) MinRequiredSources(numBytes int64) int {
	cells := p.CellsInGroup(numBytes)
	if cells < p.DataUnits {
		return cells
	}
	return p.DataUnits
}

func (p Policy) String() string {
	return fmt.Sprintf("RS-%d-%d-%dk", p.DataUnits, p.ParityUnits, p.CellSize/1024)
}
