package types

type TypeID int

const (
	Invalid TypeID = iota
	Integer
	Float
	Char
)

// Size returns the encoded size of a fixed length type. Char is variable and returns 0.
func (t TypeID) Size() uint32 {
	switch t {
	case Integer, Float:
		return 4
	}
	return 0
}

func (t TypeID) String() string {
	switch t {
	case Integer:
		return "int"
	case Float:
		return "float"
	case Char:
		return "char"
	}
	return "invalid"
}
