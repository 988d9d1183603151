package work

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolDefaultsWorkerCount(t *testing.T) {
	p := NewPool(0)
	assert.Equal(t, 10, p.workers)

	p2 := NewPool(-5)
	assert.Equal(t, 10, p2.workers)

	p3 := NewPool(4)
	assert.Equal(t, 4, p3.workers)
}

func TestMapPreservesOrder(t *testing.T) {
	p := NewPool(3)
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	out := Map(context.Background(), p, items, func(ctx context.Context, i int) int {
		return i * i
	})

	require.Len(t, out, len(items))
	for i, v := range out {
		assert.Equal(t, items[i]*items[i], v)
	}
}

func TestMapEmptyInput(t *testing.T) {
	p := NewPool(2)
	out := Map(context.Background(), p, []int{}, func(ctx context.Context, i int) int { return i })
	assert.Nil(t, out)
}

func TestMapRespectsCancellation(t *testing.T) {
	p := NewPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []int{1, 2, 3}
	out := Map(ctx, p, items, func(ctx context.Context, i int) int {
		time.Sleep(time.Millisecond)
		return i * 100
	})

	require.Len(t, out, 3)
	for _, v := range out {
		assert.Equal(t, 0, v)
	}
}
