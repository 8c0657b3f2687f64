package services

import (
	"sort"
	"sync"
	"time"

	"go-gatewatch/internal/activity/models"
	"go-gatewatch/pkg/config"
)

// Store owns every live session. One mutex serializes all mutation; readers
// get deep-copied snapshots and never observe a half-updated session.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	expired   []*models.Session
	detection *config.Detection
}

// NewStore creates an empty session store with the given timeouts.
func NewStore(detection *config.Detection) *Store {
	return &Store{
		sessions:  make(map[string]*models.Session),
		detection: detection,
	}
}

// Snapshot returns the wire form of every session still inside its timeout,
// sorted by probability and then recency. This is the consistent cut handed
// to subscribers and the REST surface.
func (st *Store) Snapshot(now time.Time) []models.SessionSnapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked(now)
}

func (st *Store) snapshotLocked(now time.Time) []models.SessionSnapshot {
	live := make([]*models.Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		if !st.expiredLocked(s, now) {
			live = append(live, s)
		}
	}
	sort.SliceStable(live, func(i, j int) bool {
		if live[i].Probability != live[j].Probability {
			return live[i].Probability > live[j].Probability
		}
		if !live[i].LastActivity.Equal(live[j].LastActivity) {
			return live[i].LastActivity.After(live[j].LastActivity)
		}
		return live[i].ID < live[j].ID
	})

	out := make([]models.SessionSnapshot, 0, len(live))
	for _, s := range live {
		out = append(out, s.Snapshot())
	}
	return out
}

// ActiveCount returns the number of sessions inside their timeout.
func (st *Store) ActiveCount(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for _, s := range st.sessions {
		if !st.expiredLocked(s, now) {
			n++
		}
	}
	return n
}

// Sweep is the periodic decay tick. Sessions past their timeout are removed
// and queued for archiving; every survivor gets its probability and
// classification recomputed. Returns true when anything changed, which is
// the signal to broadcast.
func (st *Store) Sweep(now time.Time) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	changed := false
	for id, s := range st.sessions {
		if st.expiredLocked(s, now) {
			delete(st.sessions, id)
			st.expired = append(st.expired, s)
			changed = true
			continue
		}

		prevProb := s.Probability
		prevClass := s.Classification
		prob, trace := scoreSession(s, now, st.detection)
		s.Probability = prob
		s.ProbabilityLog = trace
		s.Classification = classifySession(s)
		if s.Probability != prevProb || s.Classification != prevClass {
			changed = true
		}
	}
	return changed
}

// PopExpired drains the archive queue.
func (st *Store) PopExpired() []*models.Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := st.expired
	st.expired = nil
	return out
}

// Requeue puts a session back on the archive queue after a failed write, so
// the next sweep retries it. Archive inserts are idempotent, so retrying an
// already-written session is harmless.
func (st *Store) Requeue(s *models.Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expired = append(st.expired, s)
}

// TimeoutFor maps a classification to its idle timeout.
func (st *Store) TimeoutFor(classification string) time.Duration {
	if models.CampFamily[classification] {
		return st.detection.CampTimeout
	}
	return st.detection.RoamTimeout
}

func (st *Store) expiredLocked(s *models.Session, now time.Time) bool {
	return now.Sub(lastEventTime(s, now)) > st.TimeoutFor(s.Classification)
}

func lastEventTime(s *models.Session, now time.Time) time.Time {
	switch {
	case !s.LastActivity.IsZero():
		return s.LastActivity
	case !s.LastKillTime.IsZero():
		return s.LastKillTime
	case !s.StartTime.IsZero():
		return s.StartTime
	case !s.FirstKillTime.IsZero():
		return s.FirstKillTime
	}
	return now
}
