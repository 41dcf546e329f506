package contracts

import (
	"fmt"
	"time"
)

// DataError marks a missing or invalid input window.
// 해당 기간만 스킵하고 시뮬레이션은 계속된다 (run 전체를 중단하지 않음).
type DataError struct {
	Timestamp time.Time
	Reason    string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error at %s: %s", e.Timestamp.Format("2006-01-02"), e.Reason)
}

// IsDataError reports whether err is a recoverable per-period data error
func IsDataError(err error) bool {
	_, ok := err.(*DataError)
	return ok
}
