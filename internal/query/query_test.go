package query

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"tour-booking-api/pkg/apierror"
)

func tourOptions() Options {
	return Options{
		Filterable: map[string]bool{
			"name": true, "difficulty": true, "duration": true,
			"price": true, "ratings_average": true, "created_at": true,
		},
		Columns: []string{"id", "name", "difficulty", "duration", "price", "created_at", "schema_version"},
		Hidden:  []string{"schema_version"},
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("combined filter sort and pagination", func(t *testing.T) {
		values := url.Values{
			"difficulty":   {"easy"},
			"price":        {"500"},
			"duration_gte": {"5"},
			"sort":         {"-price"},
			"limit":        {"2"},
			"page":         {"1"},
		}

		spec, err := Parse(values, tourOptions())
		require.NoError(t, err)

		require.ElementsMatch(t, []Filter{
			{Field: "difficulty", Op: OpEq, Value: "easy"},
			{Field: "price", Op: OpEq, Value: float64(500)},
			{Field: "duration", Op: OpGte, Value: float64(5)},
		}, spec.Filters)

		require.Equal(t, []SortKey{{Field: "price", Desc: true}}, spec.Sort)
		require.Equal(t, 2, spec.Limit)
		require.Equal(t, 1, spec.Page)
		require.Equal(t, 0, spec.Offset)
	})

	t.Run("defaults", func(t *testing.T) {
		spec, err := Parse(url.Values{}, tourOptions())
		require.NoError(t, err)

		require.Empty(t, spec.Filters)
		require.Equal(t, []SortKey{{Field: "created_at", Desc: true}}, spec.Sort)
		require.Equal(t, 1, spec.Page)
		require.Equal(t, 100, spec.Limit)
		require.Equal(t, 0, spec.Offset)
		// Default projection drops the internal bookkeeping column.
		require.Equal(t, []string{"id", "name", "difficulty", "duration", "price", "created_at"}, spec.Columns())
	})

	t.Run("explicit projection", func(t *testing.T) {
		spec, err := Parse(url.Values{"fields": {"name,price"}}, tourOptions())
		require.NoError(t, err)
		require.Equal(t, []string{"name", "price"}, spec.Columns())
	})

	t.Run("offset follows page", func(t *testing.T) {
		spec, err := Parse(url.Values{"page": {"3"}, "limit": {"10"}}, tourOptions())
		require.NoError(t, err)
		require.Equal(t, 20, spec.Offset)
	})

	t.Run("limit is capped", func(t *testing.T) {
		opts := tourOptions()
		opts.MaxLimit = 50
		spec, err := Parse(url.Values{"limit": {"10000"}}, opts)
		require.NoError(t, err)
		require.Equal(t, 50, spec.Limit)
	})

	t.Run("unknown filter field rejected", func(t *testing.T) {
		_, err := Parse(url.Values{"password_hash": {"x"}}, tourOptions())
		requireOperational(t, err, 400)
	})

	t.Run("unknown sort field rejected", func(t *testing.T) {
		_, err := Parse(url.Values{"sort": {"-secret"}}, tourOptions())
		requireOperational(t, err, 400)
	})

	t.Run("unknown projection field rejected", func(t *testing.T) {
		_, err := Parse(url.Values{"fields": {"password_hash"}}, tourOptions())
		requireOperational(t, err, 400)
	})

	t.Run("non numeric page rejected", func(t *testing.T) {
		_, err := Parse(url.Values{"page": {"abc"}}, tourOptions())
		requireOperational(t, err, 400)

		_, err = Parse(url.Values{"page": {"0"}}, tourOptions())
		requireOperational(t, err, 400)
	})
}

func TestRendering(t *testing.T) {
	t.Parallel()

	t.Run("where combines scope and filters", func(t *testing.T) {
		spec, err := Parse(url.Values{"duration_gte": {"5"}}, tourOptions())
		require.NoError(t, err)

		clause, args := spec.Where(Scope{"tour_id": "abc"}, 1)
		require.Equal(t, " WHERE tour_id = $1 AND duration >= $2", clause)
		require.Equal(t, []any{"abc", float64(5)}, args)
	})

	t.Run("where respects placeholder offset", func(t *testing.T) {
		spec, err := Parse(url.Values{"price_lt": {"1000"}}, tourOptions())
		require.NoError(t, err)

		clause, args := spec.Where(nil, 3)
		require.Equal(t, " WHERE price < $3", clause)
		require.Len(t, args, 1)
	})

	t.Run("empty where", func(t *testing.T) {
		spec, err := Parse(url.Values{}, tourOptions())
		require.NoError(t, err)

		clause, args := spec.Where(nil, 1)
		require.Empty(t, clause)
		require.Nil(t, args)
	})

	t.Run("order by adds stable tiebreaker", func(t *testing.T) {
		spec, err := Parse(url.Values{"sort": {"-price,name"}}, tourOptions())
		require.NoError(t, err)
		require.Equal(t, " ORDER BY price DESC, name, id", spec.OrderBy())
	})

	t.Run("limit offset", func(t *testing.T) {
		spec, err := Parse(url.Values{"page": {"2"}, "limit": {"25"}}, tourOptions())
		require.NoError(t, err)
		require.Equal(t, " LIMIT 25 OFFSET 25", spec.LimitOffset())
	})
}

func requireOperational(t *testing.T, err error, status int) {
	t.Helper()

	var appErr *apierror.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, status, appErr.StatusCode)
	require.True(t, appErr.Operational)
}
