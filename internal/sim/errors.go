package sim

import (
	"errors"
	"fmt"
	"time"
)

// SimulationError is a fatal internal inconsistency. The run stops and the
// ledger up to the failure point is returned as-is.
// 데이터 문제(DataError)와 달리 스킵으로 복구할 수 없다.
type SimulationError struct {
	Timestamp time.Time
	Op        string
	Reason    string
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("simulation error at %s during %s: %s",
		e.Timestamp.Format("2006-01-02"), e.Op, e.Reason)
}

// IsSimulationError reports whether err is (or wraps) a SimulationError
func IsSimulationError(err error) bool {
	var se *SimulationError
	return errors.As(err, &se)
}
