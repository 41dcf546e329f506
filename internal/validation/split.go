package validation

import (
	"math/rand"
	"sort"

	"github.com/wonny/edgelab/internal/contracts"
	"github.com/wonny/edgelab/internal/strategyconfig"
)

// splitTrades divides the ledger into train/test segments.
// 모든 분할은 청산 시각 기준 시간순 정렬에서 출발한다.
//   - sequential: 앞쪽 비율을 train으로
//   - expanding:  sequential과 같은 경계 (확장 윈도우의 단일 분할)
//   - random:     시드 고정 셔플 후 추출, 양쪽 다시 시간순 정렬
func splitTrades(trades []contracts.Trade, cfg strategyconfig.Split) (train, test []contracts.Trade) {
	sorted := make([]contracts.Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExitTime.Before(sorted[j].ExitTime) })

	cut := int(float64(len(sorted)) * cfg.TrainRatio)
	if cut < 1 {
		cut = 1
	}
	if cut >= len(sorted) {
		cut = len(sorted) - 1
	}

	switch cfg.Method {
	case "random":
		rng := rand.New(rand.NewSource(cfg.Seed)) // 재현성: 시드 고정
		idx := rng.Perm(len(sorted))

		inTrain := make([]bool, len(sorted))
		for _, j := range idx[:cut] {
			inTrain[j] = true
		}
		for i, t := range sorted {
			if inTrain[i] {
				train = append(train, t)
			} else {
				test = append(test, t)
			}
		}
		return train, test

	default: // sequential, expanding
		return sorted[:cut], sorted[cut:]
	}
}
