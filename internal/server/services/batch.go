package services

import (
	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/models"
)

// orderBatch topologically sorts batch requests so that every request whose
// ParentID points at a batch-local placeholder comes after the request that
// declares it. Kahn's algorithm over the placeholder edges; duplicate
// placeholders, references to placeholders nobody declares, and cycles are
// all rejected before any request executes. The relative order of
// independent requests is preserved.
func orderBatch(reqs []*IndiagramUpdate) ([]*IndiagramUpdate, error) {
	declared := make(map[int64]int, len(reqs))
	for i, r := range reqs {
		if r.ID < models.RootParentID {
			if _, dup := declared[r.ID]; dup {
				return nil, common.ErrorBadRequest
			}
			declared[r.ID] = i
		}
	}

	indegree := make([]int, len(reqs))
	dependents := make([][]int, len(reqs))
	for i, r := range reqs {
		if r.ParentID >= models.RootParentID {
			continue
		}
		j, ok := declared[r.ParentID]
		if !ok {
			return nil, common.ErrorBadRequest
		}
		dependents[j] = append(dependents[j], i)
		indegree[i]++
	}

	var queue []int
	for i := range reqs {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	ordered := make([]*IndiagramUpdate, 0, len(reqs))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		ordered = append(ordered, reqs[i])

		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(ordered) != len(reqs) {
		// Requests left with positive indegree form a placeholder cycle.
		return nil, common.ErrorBadRequest
	}
	return ordered, nil
}
