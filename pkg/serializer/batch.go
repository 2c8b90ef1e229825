package serializer

import (
	"context"

	"go.uber.org/zap"

	"github.com/lk2023060901/capture-go/pkg/util/conc"
)

// SerializeAll 在 pool 上并发规范化相互独立的 values，每个值使用独立的遍历状态。
// 结果顺序与输入一致。pool 为 nil 时临时创建一个默认协程池。
//
// ctx 被取消后不再提交新任务，并返回 ctx.Err()。
func (s *Serializer) SerializeAll(ctx context.Context, values []any, pool *conc.Pool[any]) ([]any, error) {
	if pool == nil {
		pool = conc.NewDefaultPool[any]()
		defer pool.Release()
	}

	futures := make([]*conc.Future[any], 0, len(values))
	for i := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value := values[i]
		futures = append(futures, pool.Submit(func() (any, error) {
			return s.Serialize(value), nil
		}))
	}

	results := make([]any, len(futures))
	for i, future := range futures {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-future.Done():
		}
		v, err := future.Await()
		if err != nil {
			s.Logger().Warn("normalize batch value failed", zap.Int("index", i), zap.Error(err))
			v = FailedMarker
		}
		results[i] = v
	}
	return results, nil
}
