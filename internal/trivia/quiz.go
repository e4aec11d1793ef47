package trivia

import "math/rand/v2"

// SelectFunc picks the next question from candidates, skipping ids in served.
// It reports false when every candidate has been served.
type SelectFunc func(candidates []Question, served map[int]struct{}) (Question, bool)

// SelectFirstUnseen returns the first candidate, in id order, that has not
// been served. This is the default and is fully deterministic.
func SelectFirstUnseen(candidates []Question, served map[int]struct{}) (Question, bool) {
	for _, q := range candidates {
		if _, seen := served[q.ID]; !seen {
			return q, true
		}
	}
	return Question{}, false
}

// SelectRandomUnseen picks uniformly among the unseen candidates.
func SelectRandomUnseen(candidates []Question, served map[int]struct{}) (Question, bool) {
	unseen := make([]Question, 0, len(candidates))
	for _, q := range candidates {
		if _, seen := served[q.ID]; !seen {
			unseen = append(unseen, q)
		}
	}
	if len(unseen) == 0 {
		return Question{}, false
	}
	return unseen[rand.IntN(len(unseen))], true
}

func servedSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
