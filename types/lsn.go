package types

import (
	"encoding/binary"
)

// LSN is the type of the log identifier
type LSN int32

const SizeOfLSN = 4

const InvalidLSN = LSN(-1)

// Serialize casts it to []byte
func (lsn LSN) Serialize() []byte {
	buf := make([]byte, SizeOfLSN)
	binary.LittleEndian.PutUint32(buf, uint32(lsn))
	return buf
}

// NewLSNFromBytes creates a LSN from []byte
func NewLSNFromBytes(data []byte) LSN {
	return LSN(int32(binary.LittleEndian.Uint32(data)))
}
