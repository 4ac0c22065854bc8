// Package store provides calendar.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/calendar-engine/calendar"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	versions    map[dayKey][]calendar.EntryVersion
	projections map[dayKey]calendar.DayProjection
	statuses    map[calendar.UserID]calendar.Status
	statusLog   map[calendar.UserID][]calendar.StatusChange
	holidays    map[string]calendar.CompanyHoliday
	inbox       map[calendar.UserID][]calendar.Notification
}

type dayKey struct {
	Owner calendar.UserID
	Date  string
}

func NewMemory() *Memory {
	return &Memory{
		versions:    make(map[dayKey][]calendar.EntryVersion),
		projections: make(map[dayKey]calendar.DayProjection),
		statuses:    make(map[calendar.UserID]calendar.Status),
		statusLog:   make(map[calendar.UserID][]calendar.StatusChange),
		holidays:    make(map[string]calendar.CompanyHoliday),
		inbox:       make(map[calendar.UserID][]calendar.Notification),
	}
}

// AppendVersions appends the batch atomically and patches the projection of
// every touched day. Append-only.
func (m *Memory) AppendVersions(_ context.Context, versions []calendar.EntryVersion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range versions {
		k := dayKey{Owner: v.Owner, Date: v.Date.String()}
		m.versions[k] = append(m.versions[k], v)
		m.projections[k] = calendar.DayProjection{
			Owner:   v.Owner,
			Date:    v.Date,
			Comment: v.Comment,
			Flag:    v.Flag,
			Hours:   v.Hours,
		}
	}
	return nil
}

func (m *Memory) History(_ context.Context, owner calendar.UserID, date calendar.Date) ([]calendar.EntryVersion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.versions[dayKey{Owner: owner, Date: date.String()}]
	// Most recent first.
	result := make([]calendar.EntryVersion, len(stored))
	for i, v := range stored {
		result[len(stored)-1-i] = v
	}
	return result, nil
}

func (m *Memory) Projection(_ context.Context, owner calendar.UserID, date calendar.Date) (calendar.DayProjection, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projections[dayKey{Owner: owner, Date: date.String()}]
	return p, ok, nil
}

func (m *Memory) ProjectedDays(_ context.Context, owner calendar.UserID) ([]calendar.DayProjection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []calendar.DayProjection
	for k, p := range m.projections {
		if k.Owner == owner {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) CountFlagDays(_ context.Context, owner calendar.UserID, flag calendar.Flag) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for k, p := range m.projections {
		if k.Owner == owner && p.Flag == flag {
			count++
		}
	}
	return count, nil
}

func (m *Memory) Status(_ context.Context, owner calendar.UserID) (calendar.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.statuses[owner]
	if !ok {
		s = calendar.StatusDraft
		m.statuses[owner] = s
	}
	return s, nil
}

func (m *Memory) SetStatus(_ context.Context, owner calendar.UserID, to calendar.Status, change calendar.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.statuses[owner] = to
	m.statusLog[owner] = append(m.statusLog[owner], change)
	return nil
}

func (m *Memory) StatusHistory(_ context.Context, owner calendar.UserID) ([]calendar.StatusChange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.statusLog[owner]
	result := make([]calendar.StatusChange, len(stored))
	for i, c := range stored {
		result[len(stored)-1-i] = c
	}
	return result, nil
}

func (m *Memory) RecordHoliday(_ context.Context, h calendar.CompanyHoliday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.holidays[h.Date.String()] = h
	return nil
}

func (m *Memory) Holidays(_ context.Context) ([]calendar.CompanyHoliday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]calendar.CompanyHoliday, 0, len(m.holidays))
	for _, h := range m.holidays {
		result = append(result, h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) PushNotification(_ context.Context, owner calendar.UserID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inbox[owner] = append(m.inbox[owner], calendar.Notification{
		Timestamp: time.Now(),
		Message:   message,
	})
	return nil
}

func (m *Memory) Notifications(_ context.Context, owner calendar.UserID) ([]calendar.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]calendar.Notification, len(m.inbox[owner]))
	copy(result, m.inbox[owner])
	return result, nil
}

func (m *Memory) ClearNotifications(_ context.Context, owner calendar.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.inbox, owner)
	return nil
}

// Compile-time check.
var _ calendar.Store = (*Memory)(nil)
