// log.go implements the per-category record log.

package det

// OverflowPolicy decides what a bounded log does when it is full.
type OverflowPolicy uint8

const (
	// DropOldest evicts the oldest record to make room. Reports stay OK.
	DropOldest OverflowPolicy = iota

	// RejectNew refuses the new record and the report returns NotOK.
	RejectNew
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop_oldest"
	case RejectNew:
		return "reject_new"
	default:
		return "unknown"
	}
}

// recordLog is an append-only sequence of records.
// With maxSize <= 0 it grows without bound; otherwise it is a ring buffer
// governed by policy. Not safe for concurrent use; the Tracer locks.
type recordLog struct {
	records  []Record
	maxSize  int
	policy   OverflowPolicy
	writeIdx int
	dropped  uint64
}

func newRecordLog(maxSize int, policy OverflowPolicy) *recordLog {
	return &recordLog{maxSize: maxSize, policy: policy}
}

// add appends a record. It returns accepted=false when the log is full under
// RejectNew, and evicted=true (with the evicted record) under DropOldest.
func (l *recordLog) add(rec Record) (accepted bool, evicted *Record) {
	if l.maxSize <= 0 || len(l.records) < l.maxSize {
		l.records = append(l.records, rec)
		return true, nil
	}

	if l.policy == RejectNew {
		l.dropped++
		return false, nil
	}

	// Full ring: writeIdx points at the oldest record.
	old := l.records[l.writeIdx]
	l.records[l.writeIdx] = rec
	l.writeIdx = (l.writeIdx + 1) % l.maxSize
	l.dropped++
	return true, &old
}

// snapshot returns the records oldest first. The result is never nil and
// does not alias internal storage.
func (l *recordLog) snapshot() []Record {
	result := make([]Record, len(l.records))
	if l.writeIdx == 0 {
		copy(result, l.records)
		return result
	}
	n := copy(result, l.records[l.writeIdx:])
	copy(result[n:], l.records[:l.writeIdx])
	return result
}

func (l *recordLog) len() int {
	return len(l.records)
}

// clear empties the log. The dropped counter is kept.
func (l *recordLog) clear() {
	l.records = nil
	l.writeIdx = 0
}
