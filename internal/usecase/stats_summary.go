package usecase

import (
	"math"
	"sync"

	"traderoom-backend/internal/domain"
)

// StatsSummary holds a room's headline KPIs.
//
// Failure policy is fail-soft: when the backend is unreachable the summary
// reverts to the caller-supplied fallback instead of going empty, so KPI
// widgets always have something to render.
type StatsSummary struct {
	api      domain.StatsAPI
	room     string
	fallback domain.Stats

	mu        sync.RWMutex
	stats     domain.Stats
	isLoading bool
	lastError string
}

func NewStatsSummary(api domain.StatsAPI, room string, fallback domain.Stats) *StatsSummary {
	return &StatsSummary{
		api:      api,
		room:     room,
		fallback: fallback,
		stats:    fallback,
	}
}

func (s *StatsSummary) Fetch() error {
	s.mu.Lock()
	s.isLoading = true
	s.mu.Unlock()

	stats, err := s.api.FetchStats(s.room)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.isLoading = false
	if err != nil {
		s.stats = s.fallback
		s.lastError = err.Error()
		return err
	}
	s.lastError = ""
	s.stats = *stats
	return nil
}

func (s *StatsSummary) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// WeeklyPerformance derives the dashboard-header weekly block. The winning
// count is round(winRate/100 * total) -- an estimate standing in for a real
// backend field, kept as-is until the API returns the count directly.
func (s *StatsSummary) WeeklyPerformance() domain.WeeklyPerformance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.stats.ActiveTrades + s.stats.ClosedThisWeek
	return domain.WeeklyPerformance{
		TotalTrades:   total,
		WinningTrades: int(math.Round(s.stats.WinRate / 100 * float64(total))),
		ProfitPercent: s.stats.WeeklyProfit,
	}
}

func (s *StatsSummary) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isLoading
}

func (s *StatsSummary) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
