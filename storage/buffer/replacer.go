package buffer

//FrameID is the type for frame id
type FrameID uint32

// Replacer tracks frames which may be evicted and picks the victim.
// A frame is evictable only while its page has no pins.
type Replacer interface {
	// Victim removes and returns the frame chosen by the replacement policy
	Victim() (FrameID, bool)
	// Pin makes the frame not evictable
	Pin(FrameID)
	// Unpin makes the frame evictable
	Unpin(FrameID)
	// Size returns the number of evictable frames
	Size() uint32
}

type ReplacerKind int

const (
	ClockReplacerKind ReplacerKind = iota
	LRUReplacerKind
)

// NewReplacer instantiates a replacer of kind which tracks frames [0, poolSize)
func NewReplacer(kind ReplacerKind, poolSize uint32) Replacer {
	switch kind {
	case LRUReplacerKind:
		return NewLRUReplacer(poolSize)
	default:
		return NewClockReplacer(poolSize)
	}
}

func (k ReplacerKind) String() string {
	switch k {
	case LRUReplacerKind:
		return "LRU"
	case ClockReplacerKind:
		return "Clock"
	}
	return "Unknown"
}
