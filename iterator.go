package central

import (
	"context"
	"errors"
	"iter"
)

// ErrEmptyIterator is returned by First when the iterator yields no items.
var ErrEmptyIterator = errors.New("iterator is empty")

// pageFunc fetches a single page.
type pageFunc[T any] func(ctx context.Context, opts PageOptions) (*Page[T], error)

// paginate walks a collection page by page, fetching lazily as the caller
// iterates. Iteration stops at the first error, which is yielded once.
func paginate[T any](ctx context.Context, start PageOptions, fetch pageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		opts := start

		for {
			page, err := fetch(ctx, opts)
			if err != nil {
				yield(zero, err)
				return
			}

			for _, item := range page.Items {
				if err := ctx.Err(); err != nil {
					yield(zero, err)
					return
				}
				if !yield(item, nil) {
					return
				}
			}

			if len(page.Items) == 0 || !page.HasMore() {
				return
			}
			opts = page.Next(opts)
		}
	}
}

// Collect gathers all items from an iterator into a slice.
// It stops on the first error and returns all items collected so far along with the error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	result := make([]T, 0)
	for item, err := range seq {
		if err != nil {
			return result, err
		}
		result = append(result, item)
	}
	return result, nil
}

// CollectN gathers up to n items from an iterator.
func CollectN[T any](seq iter.Seq2[T, error], n int) ([]T, error) {
	result := make([]T, 0, n)
	if n <= 0 {
		return result, nil
	}
	for item, err := range seq {
		if err != nil {
			return result, err
		}
		result = append(result, item)
		if len(result) >= n {
			break
		}
	}
	return result, nil
}

// First returns the first item from an iterator, or an error if the iterator is empty or fails.
func First[T any](seq iter.Seq2[T, error]) (T, error) {
	for item, err := range seq {
		return item, err
	}
	var zero T
	return zero, ErrEmptyIterator
}
