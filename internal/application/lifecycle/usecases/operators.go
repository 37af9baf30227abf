package usecases

import "sort"

// OperatorPolicy decides who may take operator decisions.
type OperatorPolicy interface {
	IsOperator(actor int64) bool
}

// OperatorRoster is the static set of operator chat ids from configuration.
type OperatorRoster struct {
	ids map[int64]struct{}
}

func NewOperatorRoster(ids []int64) *OperatorRoster {
	r := &OperatorRoster{ids: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		if id != 0 {
			r.ids[id] = struct{}{}
		}
	}
	return r
}

func (r *OperatorRoster) IsOperator(actor int64) bool {
	_, ok := r.ids[actor]
	return ok
}

// IDs returns the operator ids in ascending order.
func (r *OperatorRoster) IDs() []int64 {
	out := make([]int64, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
