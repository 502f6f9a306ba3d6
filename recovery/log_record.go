package recovery

import "fmt"

/** The type of the log record. */
type LogRecordType int32

const (
	INVALID LogRecordType = iota
	INSERT
	MARKDELETE
	APPLYDELETE
	ROLLBACKDELETE
	UPDATE
	/** Creating a new page in the table heap. */
	NEWPAGE
)

func (t LogRecordType) String() string {
	switch t {
	case INSERT:
		return "INSERT"
	case MARKDELETE:
		return "MARKDELETE"
	case APPLYDELETE:
		return "APPLYDELETE"
	case ROLLBACKDELETE:
		return "ROLLBACKDELETE"
	case UPDATE:
		return "UPDATE"
	case NEWPAGE:
		return "NEWPAGE"
	}
	return fmt.Sprintf("INVALID(%d)", int32(t))
}
