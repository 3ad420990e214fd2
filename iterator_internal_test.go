package central

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	t.Run("follows page numbers", func(t *testing.T) {
		var requested []PageOptions
		fetch := func(_ context.Context, opts PageOptions) (*Page[int], error) {
			requested = append(requested, opts)
			return &Page[int]{
				Items: []int{opts.Page * 10, opts.Page*10 + 1},
				Pages: PageInfo{Current: opts.Page, TotalPages: 3},
			}, nil
		}

		items, err := Collect(paginate(context.Background(), PageOptions{Page: 1, PageSize: 2}, fetch))
		require.NoError(t, err)
		assert.Equal(t, []int{10, 11, 20, 21, 30, 31}, items)
		assert.Equal(t, []PageOptions{
			{Page: 1, PageSize: 2},
			{Page: 2, PageSize: 2},
			{Page: 3, PageSize: 2},
		}, requested)
	})

	t.Run("follows page keys", func(t *testing.T) {
		pages := map[string]*Page[string]{
			"":   {Items: []string{"a"}, Pages: PageInfo{NextKey: "k1"}},
			"k1": {Items: []string{"b"}, Pages: PageInfo{FromKey: "k1", NextKey: "k2"}},
			"k2": {Items: []string{"c"}, Pages: PageInfo{FromKey: "k2"}},
		}
		fetch := func(_ context.Context, opts PageOptions) (*Page[string], error) {
			return pages[opts.FromKey], nil
		}

		items, err := Collect(paginate(context.Background(), PageOptions{}, fetch))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, items)
	})

	t.Run("stops early", func(t *testing.T) {
		calls := 0
		fetch := func(_ context.Context, opts PageOptions) (*Page[int], error) {
			calls++
			return &Page[int]{Items: []int{1, 2, 3}, Pages: PageInfo{Current: opts.Page, TotalPages: 100}}, nil
		}

		items, err := CollectN(paginate(context.Background(), PageOptions{Page: 1}, fetch), 2)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, items)
		assert.Equal(t, 1, calls)
	})

	t.Run("yields fetch error", func(t *testing.T) {
		boom := errors.New("boom")
		fetch := func(_ context.Context, opts PageOptions) (*Page[int], error) {
			if opts.Page == 2 {
				return nil, boom
			}
			return &Page[int]{Items: []int{1}, Pages: PageInfo{Current: 1, TotalPages: 2}}, nil
		}

		items, err := Collect(paginate(context.Background(), PageOptions{Page: 1}, fetch))
		require.ErrorIs(t, err, boom)
		assert.Equal(t, []int{1}, items)
	})

	t.Run("empty page ends iteration", func(t *testing.T) {
		calls := 0
		fetch := func(_ context.Context, _ PageOptions) (*Page[int], error) {
			calls++
			return &Page[int]{Pages: PageInfo{NextKey: "again"}}, nil
		}

		items, err := Collect(paginate(context.Background(), PageOptions{}, fetch))
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		fetch := func(_ context.Context, _ PageOptions) (*Page[int], error) {
			return &Page[int]{Items: []int{1}}, nil
		}

		_, err := Collect(paginate(ctx, PageOptions{}, fetch))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestPageOptionsParams(t *testing.T) {
	assert.Equal(t, Params{}, PageOptions{}.params(nil))
	assert.Equal(t, Params{"page": 2, "pageSize": 50, "view": "basic"},
		PageOptions{Page: 2, PageSize: 50}.params(Params{"view": "basic"}))
	assert.Equal(t, Params{"pageFromKey": "abc"}, PageOptions{FromKey: "abc"}.params(nil))
}
