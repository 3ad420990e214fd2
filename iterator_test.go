package central_test

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-central"
)

func makeSeq[T any](items []T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func makeSeqWithError[T any](items []T, errAt int, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i, item := range items {
			if i == errAt {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func TestCollect(t *testing.T) {
	t.Run("collects all items", func(t *testing.T) {
		result, err := central.Collect(makeSeq([]int{1, 2, 3, 4, 5}))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, result)
	})

	t.Run("stops on error", func(t *testing.T) {
		testErr := errors.New("test error")

		result, err := central.Collect(makeSeqWithError([]int{1, 2, 3, 4, 5}, 3, testErr))
		require.ErrorIs(t, err, testErr)
		assert.Equal(t, []int{1, 2, 3}, result)
	})

	t.Run("handles empty sequence", func(t *testing.T) {
		result, err := central.Collect(makeSeq([]int{}))
		require.NoError(t, err)
		assert.Empty(t, result)
	})
}

func TestCollectN(t *testing.T) {
	t.Run("collects up to n items", func(t *testing.T) {
		result, err := central.CollectN(makeSeq([]int{1, 2, 3, 4, 5}), 3)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, result)
	})

	t.Run("collects all if less than n", func(t *testing.T) {
		result, err := central.CollectN(makeSeq([]int{1, 2}), 5)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, result)
	})

	t.Run("zero n pulls nothing", func(t *testing.T) {
		pulled := false
		seq := func(yield func(int, error) bool) {
			pulled = true
			yield(1, nil)
		}

		result, err := central.CollectN(seq, 0)
		require.NoError(t, err)
		assert.Empty(t, result)
		assert.False(t, pulled)
	})

	t.Run("stops on error before n", func(t *testing.T) {
		testErr := errors.New("test error")

		result, err := central.CollectN(makeSeqWithError([]int{1, 2, 3, 4, 5}, 2, testErr), 5)
		require.ErrorIs(t, err, testErr)
		assert.Equal(t, []int{1, 2}, result)
	})
}

func TestFirst(t *testing.T) {
	t.Run("returns first item", func(t *testing.T) {
		result, err := central.First(makeSeq([]string{"a", "b", "c"}))
		require.NoError(t, err)
		assert.Equal(t, "a", result)
	})

	t.Run("returns error for empty iterator", func(t *testing.T) {
		_, err := central.First(makeSeq([]string{}))
		assert.ErrorIs(t, err, central.ErrEmptyIterator)
	})

	t.Run("returns error if first item errors", func(t *testing.T) {
		testErr := errors.New("test error")

		_, err := central.First(makeSeqWithError([]string{"a"}, 0, testErr))
		require.ErrorIs(t, err, testErr)
	})
}
