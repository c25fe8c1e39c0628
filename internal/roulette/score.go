package roulette

import "github.com/fyefbv/common-ground-api/internal/config"

// MatchScore computes the overlap score between the searching profile
// and one waiting candidate:
//
//	score = |own ∩ partner| + 2×|priority ∩ partner| + floor(partnerReputation)
//
// A candidate is only eligible when the score reaches
// config.MinMatchScore.
func MatchScore(ownInterests, partnerInterests, priorityInterests []string, partnerReputation float64) int {
	partnerSet := toSet(partnerInterests)

	score := 0
	for _, interest := range ownInterests {
		if _, ok := partnerSet[interest]; ok {
			score++
		}
	}
	for _, interest := range priorityInterests {
		if _, ok := partnerSet[interest]; ok {
			score += config.PriorityMatchWeight
		}
	}
	score += int(partnerReputation)

	return score
}

// PickMatchedInterest selects the interest recorded on the session for a
// match. Preference order: an interest in both parties' priority lists
// and the common set, then one in the searcher's priority list and the
// common set, then any common interest, else nil. The common set is
// walked in the searcher's interest order so the choice is
// deterministic.
func PickMatchedInterest(ownInterests, partnerInterests, ownPriority, partnerPriority []string) *string {
	partnerSet := toSet(partnerInterests)

	var common []string
	for _, interest := range ownInterests {
		if _, ok := partnerSet[interest]; ok {
			common = append(common, interest)
		}
	}
	if len(common) == 0 {
		return nil
	}

	ownPrioritySet := toSet(ownPriority)
	partnerPrioritySet := toSet(partnerPriority)

	for _, interest := range common {
		_, ours := ownPrioritySet[interest]
		_, theirs := partnerPrioritySet[interest]
		if ours && theirs {
			return &interest
		}
	}
	for _, interest := range common {
		if _, ours := ownPrioritySet[interest]; ours {
			return &interest
		}
	}
	return &common[0]
}

func toSet(interests []string) map[string]struct{} {
	set := make(map[string]struct{}, len(interests))
	for _, interest := range interests {
		set[interest] = struct{}{}
	}
	return set
}
