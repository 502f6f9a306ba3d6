// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package types

import (
	"encoding/binary"
)

type UInt32 uint32
type Int32 int32

// Serialize casts it to []byte
func (id UInt32) Serialize() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(id))
	return buf
}

func NewUInt32FromBytes(data []byte) UInt32 {
	return UInt32(binary.LittleEndian.Uint32(data))
}

// Serialize casts it to []byte
func (id Int32) Serialize() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(id))
	return buf
}

func NewInt32FromBytes(data []byte) Int32 {
	return Int32(int32(binary.LittleEndian.Uint32(data)))
}
