package sb

import "fmt"

// MsgID identifies a class of bus messages.
type MsgID uint32

const (
	// InvalidMsgID is the reserved sentinel that is never a valid message id
	InvalidMsgID MsgID = 0xFFFFFFFF

	// DefaultHighestValidMsgID is the default platform ceiling for message ids
	DefaultHighestValidMsgID MsgID = 0x1FFF
)

// String formats the id the way flight software tables print it.
func (id MsgID) String() string {
	if id == InvalidMsgID {
		return "INVALID"
	}
	return fmt.Sprintf("0x%04X", uint32(id))
}

// MsgIDRange bounds the message ids accepted by a bus instance: 0..Highest inclusive.
type MsgIDRange struct {
	Highest MsgID
}

// DefaultMsgIDRange returns the range 0..DefaultHighestValidMsgID.
func DefaultMsgIDRange() MsgIDRange {
	return MsgIDRange{Highest: DefaultHighestValidMsgID}
}

// IsValid reports whether id lies in the range and is not the invalid sentinel.
func (r MsgIDRange) IsValid(id MsgID) bool {
	return id != InvalidMsgID && id <= r.Highest
}

// Size returns the number of distinct valid ids in the range.
func (r MsgIDRange) Size() uint64 {
	if r.Highest == InvalidMsgID {
		return uint64(InvalidMsgID)
	}
	return uint64(r.Highest) + 1
}
