package services

import "go-gatewatch/internal/activity/models"

// classifySession maps a session's post-scoring state to exactly one
// classification tag. First match wins:
//
//  1. smartbomb evidence on any kill
//  2. battle at 40+ participants
//  3. multi-system with camp-like probability -> roaming_camp
//  4. camp-like probability -> camp (solo_camp for a lone attacker)
//  5. multi-system -> roam (solo_roam for a lone attacker)
//  6. activity
//
// The result is a pure function of the session state.
func classifySession(s *models.Session) string {
	if s.Smartbomb {
		return models.ClassificationSmartbomb
	}

	participants := s.Metrics.PartyMetrics.Characters
	if participants == 0 {
		participants = s.Members.Len()
	}
	if participants >= battleParticipantThreshold {
		return models.ClassificationBattle
	}

	campLike := s.Probability >= minProbThreshold
	multiSystem := s.VisitedSystems.Len() > 1
	solo := s.Composition.OriginalAttackers.Len() <= 1

	if multiSystem && campLike {
		return models.ClassificationRoamingCamp
	}
	if campLike {
		if solo {
			return models.ClassificationSoloCamp
		}
		return models.ClassificationCamp
	}
	if multiSystem {
		if solo {
			return models.ClassificationSoloRoam
		}
		return models.ClassificationRoam
	}
	return models.ClassificationActivity
}
