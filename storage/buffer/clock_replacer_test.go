package buffer

import (
	"testing"

	testingpkg "github.com/ryogrid/HeapStoreDB/testing/testing_assert"
)

func TestClockReplacer(t *testing.T) {
	clockReplacer := NewClockReplacer(7)

	// Scenario: unpin six elements, i.e. add them to the replacer.
	clockReplacer.Unpin(1)
	clockReplacer.Unpin(2)
	clockReplacer.Unpin(3)
	clockReplacer.Unpin(4)
	clockReplacer.Unpin(5)
	clockReplacer.Unpin(6)
	clockReplacer.Unpin(1)
	testingpkg.Equals(t, uint32(6), clockReplacer.Size())

	// Scenario: get three victims from the clock.
	value, ok := clockReplacer.Victim()
	testingpkg.Assert(t, ok, "victim expected")
	testingpkg.Equals(t, FrameID(1), value)
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(2), value)
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(3), value)

	// Scenario: pin elements in the replacer.
	// Note that 3 has already been victimized, so pinning 3 should have no effect.
	clockReplacer.Pin(3)
	clockReplacer.Pin(4)
	testingpkg.Equals(t, uint32(2), clockReplacer.Size())

	// Scenario: unpin 4. We expect that the reference bit of 4 will be set to 1.
	clockReplacer.Unpin(4)

	// Scenario: continue looking for victims. We expect these victims.
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(5), value)
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(6), value)
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(4), value)

	_, ok = clockReplacer.Victim()
	testingpkg.Assert(t, !ok, "empty replacer must not return a victim")
}

func TestClockReplacerSecondChance(t *testing.T) {
	clockReplacer := NewClockReplacer(3)
	clockReplacer.Unpin(0)
	clockReplacer.Unpin(1)
	clockReplacer.Unpin(2)

	value, _ := clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(0), value)

	// 1 and 2 lost their reference bits on the first sweep. Touching 1 again saves it once.
	clockReplacer.Unpin(1)
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(2), value)
	value, _ = clockReplacer.Victim()
	testingpkg.Equals(t, FrameID(1), value)
}

func TestClockReplacerOutOfRange(t *testing.T) {
	clockReplacer := NewClockReplacer(2)
	clockReplacer.Pin(10)
	testingpkg.Equals(t, uint32(0), clockReplacer.Size())
	defer func() {
		testingpkg.Assert(t, recover() != nil, "unpin of an unknown frame must panic")
	}()
	clockReplacer.Unpin(2)
}
