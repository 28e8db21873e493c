package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/maildigest/pkg/domain"
)

// oracleFunc adapts a function to Oracle
type oracleFunc func(ctx context.Context, req Request) (any, error)

func (f oracleFunc) Call(ctx context.Context, req Request) (any, error) { return f(ctx, req) }

func TestCoerce(t *testing.T) {
	t.Run("untyped map", func(t *testing.T) {
		res, err := Coerce[clusterResult](map[string]any{"groups": []any{
			map[string]any{"type": "duplicate", "item_ids": []any{float64(0), float64(2)}, "group_title": "t", "group_summary": "s"},
		}})
		require.NoError(t, err)
		require.Len(t, res.Groups, 1)
		assert.Equal(t, domain.ClusterGroup{Type: domain.GroupDuplicate, ItemIDs: []int{0, 2}, Title: "t", Summary: "s"}, res.Groups[0])
	})

	t.Run("already typed", func(t *testing.T) {
		in := clusterResult{Groups: []domain.ClusterGroup{}}
		res, err := Coerce[clusterResult](in)
		require.NoError(t, err)
		assert.Equal(t, in, res)
	})

	t.Run("nil payload", func(t *testing.T) {
		_, err := Coerce[clusterResult](nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaCoercion)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := Coerce[clusterResult](map[string]any{"groups": "not a list"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaCoercion)
		var cerr *CoercionError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, "llm.clusterResult", cerr.Target)
	})

	t.Run("validation failure", func(t *testing.T) {
		_, err := Coerce[clusterResult](map[string]any{"groups": nil})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaCoercion)
		assert.Contains(t, err.Error(), "groups list is missing")
	})

	t.Run("type without validation", func(t *testing.T) {
		res, err := Coerce[domain.ExtractedItem](map[string]any{"title": "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", res.Title)
	})
}

func TestAsk(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		oracle := oracleFunc(func(_ context.Context, req Request) (any, error) {
			assert.Equal(t, "m", req.Model)
			return map[string]any{"items": []any{}}, nil
		})
		res, err := Ask[extractionResult](context.Background(), oracle, Request{Model: "m"})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.NotNil(t, res.Items)
	})

	t.Run("call error passed as is", func(t *testing.T) {
		oracle := oracleFunc(func(context.Context, Request) (any, error) { return nil, errors.New("network down") })
		_, err := Ask[extractionResult](context.Background(), oracle, Request{})
		require.EqualError(t, err, "network down")
		assert.NotErrorIs(t, err, ErrSchemaCoercion)
	})
}
