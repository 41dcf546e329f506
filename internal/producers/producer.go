package producers

import (
	"context"
	"sync"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/pkg/logger"
)

// Producer is a stateless function of a data window that may emit an opinion.
// nil 반환은 "의견 없음" (히스토리 부족 등)이며, flat 의견과 구분된다.
type Producer interface {
	ID() string
	Kind() contracts.SourceKind
	Produce(ctx context.Context, window *contracts.DataWindow) (*contracts.Opinion, error)
}

// EvaluateAll evaluates every producer against the same window concurrently.
// 프로듀서 간 공유 상태가 없으므로 병렬 평가가 안전하다.
// 결과 순서는 producers 순서와 동일하게 유지된다 (결정적).
// DataError는 해당 프로듀서만 스킵하고 기록한다.
func EvaluateAll(ctx context.Context, producers []Producer, window *contracts.DataWindow, log *logger.Logger) ([]contracts.Opinion, error) {
	type slot struct {
		opinion *contracts.Opinion
		err     error
	}

	slots := make([]slot, len(producers))

	var wg sync.WaitGroup
	for i, p := range producers {
		wg.Add(1)
		go func(i int, p Producer) {
			defer wg.Done()
			op, err := p.Produce(ctx, window)
			slots[i] = slot{opinion: op, err: err}
		}(i, p)
	}
	wg.Wait()

	opinions := make([]contracts.Opinion, 0, len(producers))
	for i, s := range slots {
		if s.err != nil {
			if contracts.IsDataError(s.err) {
				log.WithFields(map[string]interface{}{
					"producer": producers[i].ID(),
					"error":    s.err.Error(),
				}).Warn("Producer skipped for period")
				continue
			}
			return nil, s.err
		}
		if s.opinion == nil {
			// 의견 없음 (히스토리 부족)
			continue
		}
		opinions = append(opinions, *s.opinion)
	}

	return opinions, nil
}
