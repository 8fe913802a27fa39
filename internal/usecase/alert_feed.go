package usecase

import (
	"log"
	"sync"
	"time"

	"traderoom-backend/internal/domain"
)

// AlertsPerPage is the fixed page size for the alert feed.
const AlertsPerPage = 10

// AlertFeed is a paginated, filterable view of a room's published alerts.
//
// Failure policy is fail-stale: a failed fetch records an error string and
// leaves the previously fetched page untouched. Overlapping fetches are not
// guarded; the last response to land wins, which is safe because every fetch
// replaces state wholesale with the backend's current truth.
type AlertFeed struct {
	api  domain.AlertAPI
	room string

	mu         sync.RWMutex
	alerts     []domain.Alert
	pagination domain.Pagination
	filter     string
	isLoading  bool
	lastError  string

	refreshMu   sync.Mutex
	stopRefresh chan struct{}
}

func NewAlertFeed(api domain.AlertAPI, room string) *AlertFeed {
	return &AlertFeed{
		api:        api,
		room:       room,
		filter:     domain.AlertFilterAll,
		pagination: domain.Pagination{PerPage: AlertsPerPage},
	}
}

// Fetch loads the current page at the current offset.
func (f *AlertFeed) Fetch() error {
	f.mu.Lock()
	f.isLoading = true
	offset := f.pagination.Offset
	f.mu.Unlock()

	alerts, total, err := f.api.ListAlerts(f.room, AlertsPerPage, offset)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.isLoading = false
	if err != nil {
		f.lastError = err.Error()
		return err
	}
	f.lastError = ""
	f.alerts = alerts
	if total >= 0 {
		f.pagination.Total = total
	} else {
		// Older backend versions omit the total; fall back to the page
		// length so pagination still renders something sensible.
		f.pagination.Total = len(alerts)
	}
	return nil
}

// GoToPage navigates to a 1-based page and re-fetches. Out-of-range pages
// and the current page are no-ops.
func (f *AlertFeed) GoToPage(page int) error {
	f.mu.Lock()
	p := f.pagination
	if page < 1 || page > p.TotalPages() || page == p.Page() {
		f.mu.Unlock()
		return nil
	}
	f.pagination.Offset = (page - 1) * p.PerPage
	f.mu.Unlock()
	return f.Fetch()
}

func (f *AlertFeed) NextPage() error {
	f.mu.RLock()
	p := f.pagination
	f.mu.RUnlock()
	if !p.HasNext() {
		return nil
	}
	return f.GoToPage(p.Page() + 1)
}

func (f *AlertFeed) PrevPage() error {
	f.mu.RLock()
	p := f.pagination
	f.mu.RUnlock()
	if !p.HasPrev() {
		return nil
	}
	return f.GoToPage(p.Page() - 1)
}

// SetFilter narrows the feed to one alert type, resets to page 1 and
// re-fetches. Setting the already-active filter is a no-op. The filter also
// narrows client-side until the backend learns to filter server-side.
func (f *AlertFeed) SetFilter(filter string) error {
	if filter == "" {
		filter = domain.AlertFilterAll
	}
	f.mu.Lock()
	if filter == f.filter {
		f.mu.Unlock()
		return nil
	}
	f.filter = filter
	f.pagination.Offset = 0
	f.mu.Unlock()
	return f.Fetch()
}

// Prepend inserts a push-received alert at the head of the feed without
// re-fetching. The total grows by one; ordering of earlier prepends is
// preserved, so callers must prepend in arrival order.
func (f *AlertFeed) Prepend(alert domain.Alert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append([]domain.Alert{alert}, f.alerts...)
	f.pagination.Total++
}

// Alerts returns the current page narrowed by the active filter.
func (f *AlertFeed) Alerts() []domain.Alert {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]domain.Alert, 0, len(f.alerts))
	for _, a := range f.alerts {
		if a.MatchesFilter(f.filter) {
			out = append(out, a)
		}
	}
	return out
}

func (f *AlertFeed) Pagination() domain.Pagination {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pagination
}

func (f *AlertFeed) Filter() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter
}

func (f *AlertFeed) IsLoading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isLoading
}

func (f *AlertFeed) LastError() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastError
}

// AlertView is an alert plus its display-time relative age.
type AlertView struct {
	domain.Alert
	RelativeTime string `json:"relative_time"`
}

// AlertFeedState is the full feed snapshot served to dashboard clients.
type AlertFeedState struct {
	Alerts     []AlertView       `json:"alerts"`
	Pagination domain.Pagination `json:"pagination"`
	Filter     string            `json:"filter"`
	IsLoading  bool              `json:"isLoading"`
	Error      string            `json:"error,omitempty"`
}

func (f *AlertFeed) State() AlertFeedState {
	alerts := f.Alerts()
	views := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, AlertView{Alert: a, RelativeTime: a.RelativeTime()})
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return AlertFeedState{
		Alerts:     views,
		Pagination: f.pagination,
		Filter:     f.filter,
		IsLoading:  f.isLoading,
		Error:      f.lastError,
	}
}

// StartAutoRefresh re-fetches the current page and filter on a fixed
// interval. Disabled by default: a background re-fetch can yank the page out
// from under a member mid-read, so the caller opts in explicitly.
func (f *AlertFeed) StartAutoRefresh(interval time.Duration) {
	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()
	if f.stopRefresh != nil {
		return
	}
	stop := make(chan struct{})
	f.stopRefresh = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := f.Fetch(); err != nil {
					log.Printf("alert feed auto-refresh: %v", err)
				}
			}
		}
	}()
}

// StopAutoRefresh tears the refresh timer down. Safe to call when refresh
// was never started.
func (f *AlertFeed) StopAutoRefresh() {
	f.refreshMu.Lock()
	defer f.refreshMu.Unlock()
	if f.stopRefresh == nil {
		return
	}
	close(f.stopRefresh)
	f.stopRefresh = nil
}
