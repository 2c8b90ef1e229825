package conc

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/capture-go/pkg/util/merr"
)

type PoolSuite struct {
	suite.Suite
}

func (s *PoolSuite) TestPool() {
	pool := NewDefaultPool[int]()
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		res := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return res, nil
		}))
	}

	s.NoError(AwaitAll(futures...))
	for i, future := range futures {
		s.Equal(i, future.Value())
		s.True(future.OK())
		s.NoError(future.Err())
	}
	s.Greater(pool.Cap(), 0)
}

func (s *PoolSuite) TestTaskError() {
	pool := NewPool[string](2)
	defer pool.Release()

	errBoom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	failed := pool.Submit(func() (string, error) { return "", errBoom })

	err := AwaitAll(ok, failed)
	s.ErrorIs(err, errBoom)
	v, err := ok.Await()
	s.NoError(err)
	s.Equal("ok", v)
	s.False(failed.OK())
}

func (s *PoolSuite) TestPreHandler() {
	var called atomic.Int32
	pool := NewPool[int](1, WithPreHandler(func() { called.Add(1) }), WithExpiryDuration(time.Second))
	defer pool.Release()

	s.NoError(pool.Submit(func() (int, error) { return 1, nil }).Err())
	s.Equal(int32(1), called.Load())
}

func (s *PoolSuite) TestConcealPanic() {
	pool := NewPool[int](1, WithConcealPanic(true))
	defer pool.Release()

	future := pool.Submit(func() (int, error) { panic("task panicked") })
	select {
	case <-future.Done():
	case <-time.After(5 * time.Second):
		s.FailNow("future not completed after panic")
	}
}

func (s *PoolSuite) TestPanicHandler() {
	recovered := make(chan any, 1)
	pool := NewPool[int](1, WithPanicHandler(func(v any) { recovered <- v }))
	defer pool.Release()

	future := pool.Submit(func() (int, error) { panic("task panicked") })
	<-future.Done()
	s.Equal("task panicked", <-recovered)
}

func (s *PoolSuite) TestSubmitAfterRelease() {
	pool := NewPool[int](1, WithPreAlloc(true), WithDisablePurge(true))
	pool.Release()

	future := pool.Submit(func() (int, error) { return 1, nil })
	s.False(future.OK())
	s.True(errors.Is(future.Err(), merr.ErrServiceInternal))
}

func TestPool(t *testing.T) {
	suite.Run(t, new(PoolSuite))
}
