package runner

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/edgelab/internal/strategyconfig"
)

// Variant is one parameter combination of a sweep
type Variant struct {
	Name        string  `json:"name"`
	Policy      string  `json:"policy"`
	PriceWeight float64 `json:"price_weight"`
	AltWeight   float64 `json:"alt_weight"`
}

// SweepRequest runs the same symbol/range over many parameter variants
type SweepRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Base     *strategyconfig.Config
	Variants []Variant
	Workers  int
}

// SweepOutcome pairs a variant with its run result (or failure)
type SweepOutcome struct {
	Variant Variant    `json:"variant"`
	Result  *RunResult `json:"result,omitempty"`
	Err     error      `json:"-"`
}

// Sweep executes every variant on a bounded worker pool.
// 각 run은 완전히 독립적이다 (장부/로그 공유 없음).
// 취소는 run과 run 사이에서만 협조적으로 반영된다; 진행 중인 run은 끝까지 간다.
func (r *Runner) Sweep(ctx context.Context, req SweepRequest) []SweepOutcome {
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]SweepOutcome, len(req.Variants))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v := req.Variants[i]
				outcomes[i].Variant = v

				// run 사이 취소 확인
				if err := ctx.Err(); err != nil {
					outcomes[i].Err = err
					continue
				}

				result, err := r.RunSimulation(context.WithoutCancel(ctx), RunRequest{
					Symbol:      req.Symbol,
					Start:       req.Start,
					End:         req.End,
					Config:      req.Base,
					Policy:      v.Policy,
					PriceWeight: v.PriceWeight,
					AltWeight:   v.AltWeight,
				})
				outcomes[i].Result = result
				outcomes[i].Err = err
			}
		}()
	}

	for i := range req.Variants {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}
