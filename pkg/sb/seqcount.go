package sb

// SequenceCount is the 14-bit CCSDS packet sequence counter kept per route.
type SequenceCount uint16

// MaxSequenceCount is the highest count representable in the CCSDS primary header.
const MaxSequenceCount SequenceCount = 0x3FFF

// NextSequenceCount returns the count that follows cnt, wrapping to 0 past MaxSequenceCount.
func NextSequenceCount(cnt SequenceCount) SequenceCount {
	cnt++
	if cnt > MaxSequenceCount {
		cnt = 0
	}
	return cnt
}
