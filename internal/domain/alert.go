package domain

import (
	"time"

	"github.com/dustin/go-humanize"
)

// Alert types as published by the backend.
const (
	AlertTypeEntry  = "ENTRY"
	AlertTypeExit   = "EXIT"
	AlertTypeUpdate = "UPDATE"
)

// Alert filter values accepted by the feed. "all" disables narrowing.
const (
	AlertFilterAll    = "all"
	AlertFilterEntry  = "entry"
	AlertFilterExit   = "exit"
	AlertFilterUpdate = "update"
)

// Alert is one published trade alert. Alerts are append-only from this
// service's perspective; the backend owns their lifecycle.
type Alert struct {
	ID          TradeID   `json:"id"`
	Type        string    `json:"type"`
	Ticker      string    `json:"ticker"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	IsNew       bool      `json:"is_new"`
	Notes       string    `json:"notes,omitempty"`
	BrokerOrder string    `json:"broker_order,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RelativeTime renders the alert age for display ("4 minutes ago").
// Computed at format time, never stored.
func (a *Alert) RelativeTime() string {
	if a.CreatedAt.IsZero() {
		return ""
	}
	return humanize.Time(a.CreatedAt)
}

// MatchesFilter reports whether the alert passes a feed filter value.
func (a *Alert) MatchesFilter(filter string) bool {
	switch filter {
	case "", AlertFilterAll:
		return true
	case AlertFilterEntry:
		return a.Type == AlertTypeEntry
	case AlertFilterExit:
		return a.Type == AlertTypeExit
	case AlertFilterUpdate:
		return a.Type == AlertTypeUpdate
	}
	return false
}

// Pagination tracks a paged window into a server-side collection.
// Offset is always (page-1)*PerPage.
type Pagination struct {
	Total   int `json:"total"`
	PerPage int `json:"per_page"`
	Offset  int `json:"offset"`
}

// Page returns the current 1-based page number.
func (p Pagination) Page() int {
	if p.PerPage <= 0 {
		return 1
	}
	return p.Offset/p.PerPage + 1
}

// TotalPages returns the page count, never less than 1 so an empty
// collection still renders as page 1 of 1.
func (p Pagination) TotalPages() int {
	if p.PerPage <= 0 || p.Total <= 0 {
		return 1
	}
	pages := (p.Total + p.PerPage - 1) / p.PerPage
	if pages < 1 {
		return 1
	}
	return pages
}

func (p Pagination) HasNext() bool {
	return p.Page() < p.TotalPages()
}

func (p Pagination) HasPrev() bool {
	return p.Page() > 1
}
