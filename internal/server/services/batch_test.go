package services

import (
	"testing"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/stretchr/testify/require"
)

func placeholders(ordered []*IndiagramUpdate) []int64 {
	ids := make([]int64, len(ordered))
	for i, r := range ordered {
		ids[i] = r.ID
	}
	return ids
}

func TestOrderBatch_ChainReordered(t *testing.T) {
	ordered, err := orderBatch([]*IndiagramUpdate{
		{ID: -4, ParentID: -3},
		{ID: -3, ParentID: -2},
		{ID: -2, ParentID: -1},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{-2, -3, -4}, placeholders(ordered))
}

func TestOrderBatch_IndependentOrderPreserved(t *testing.T) {
	ordered, err := orderBatch([]*IndiagramUpdate{
		{ID: -2, ParentID: -1},
		{ID: 7, ParentID: -1},
		{ID: -3, ParentID: -1},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{-2, 7, -3}, placeholders(ordered))
}

func TestOrderBatch_UpdatesMayDependOnPlaceholders(t *testing.T) {
	ordered, err := orderBatch([]*IndiagramUpdate{
		{ID: 7, ParentID: -2},
		{ID: -2, ParentID: -1},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{-2, 7}, placeholders(ordered))
}

func TestOrderBatch_DanglingReference(t *testing.T) {
	_, err := orderBatch([]*IndiagramUpdate{
		{ID: -2, ParentID: -1},
		{ID: -3, ParentID: -5},
	})
	require.ErrorIs(t, err, common.ErrorBadRequest)
}

func TestOrderBatch_DuplicatePlaceholder(t *testing.T) {
	_, err := orderBatch([]*IndiagramUpdate{
		{ID: -2, ParentID: -1},
		{ID: -2, ParentID: -1},
	})
	require.ErrorIs(t, err, common.ErrorBadRequest)
}

func TestOrderBatch_Cycle(t *testing.T) {
	_, err := orderBatch([]*IndiagramUpdate{
		{ID: -2, ParentID: -3},
		{ID: -3, ParentID: -2},
	})
	require.ErrorIs(t, err, common.ErrorBadRequest)
}

func TestOrderBatch_SelfReference(t *testing.T) {
	_, err := orderBatch([]*IndiagramUpdate{
		{ID: -2, ParentID: -2},
	})
	require.ErrorIs(t, err, common.ErrorBadRequest)
}
