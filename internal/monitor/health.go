package monitor

import (
	"sort"
	"time"
)

const maxPollHistory = 256

// PollResult records one refresh attempt.
type PollResult struct {
	CheckedAt time.Time `json:"checkedAt"`
	OK        bool      `json:"ok"`
	LatencyMs int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
}

// Health summarises recent refresh attempts.
type Health struct {
	LastSuccessAt       time.Time `json:"lastSuccessAt,omitempty"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastError           string    `json:"lastError,omitempty"`
}

// Healthy reports whether the latest data is younger than maxAge.
func (h Health) Healthy(now time.Time, maxAge time.Duration) bool {
	return !h.LastSuccessAt.IsZero() && now.Sub(h.LastSuccessAt) <= maxAge
}

// Health returns the refresh status.
func (m *Monitor) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.health
}

// HistorySince returns refresh attempts whose timestamp is >= cutoff.
func (m *Monitor) HistorySince(cutoff time.Time) []PollResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := sort.Search(len(m.polls), func(i int) bool {
		return !m.polls[i].CheckedAt.Before(cutoff)
	})
	if idx >= len(m.polls) {
		return nil
	}
	out := make([]PollResult, len(m.polls)-idx)
	copy(out, m.polls[idx:])
	return out
}

// recordPoll appends a result; callers hold m.mu.
func (m *Monitor) recordPoll(result PollResult) {
	m.polls = append(m.polls, result)
	if len(m.polls) > maxPollHistory {
		m.polls = m.polls[len(m.polls)-maxPollHistory:]
	}
	if result.OK {
		m.health.LastSuccessAt = result.CheckedAt
		m.health.ConsecutiveFailures = 0
		m.health.LastError = ""
		return
	}
	m.health.ConsecutiveFailures++
	m.health.LastError = result.Error
}
