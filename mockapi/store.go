// Package mockapi is an in-memory stand-in for the REST ticketing backend,
// used for local runs and integration tests of the gateway.
package mockapi

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"

	defaultGroupID     = "GRP-IT"
	defaultSupportTeam = "T1-Support"
	unassignedTeam     = "Unassigned"
	firstNumber        = 200
)

var ErrTicketNotFound = errors.New("ticket not found")

// Ticket is stored as a free-form record; updates may add any field.
type Ticket map[string]any

type StatusChange struct {
	Status    string `json:"status"`
	ChangedAt string `json:"changed_at"`
}

type NewTicket struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
	GroupID     *string `json:"group_id"`
	SupportTeam *string `json:"support_team"`
	AssignedTo  *string `json:"assigned_to"`
}

type Filter struct {
	Status     string
	Priority   string
	GroupID    string
	AssignedTo string
	Limit      int
	Offset     int
}

// Store keeps tickets in insertion order together with their status history.
type Store struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	order   []string
	history map[string][]StatusChange
	now     func() time.Time

	// next is the number of the next created ticket; it only grows.
	next int
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	s := &Store{
		tickets: make(map[string]Ticket),
		history: make(map[string][]StatusChange),
		now:     now,
	}
	s.seed(now())

	return s
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (s *Store) seed(now time.Time) {
	ago := func(d time.Duration) string { return timestamp(now.Add(-d)) }
	day := 24 * time.Hour

	seed := []Ticket{
		{"rfc_number": "RFC123", "title": "Network printer is offline", "status": StatusOpen, "priority": "High",
			"category": "Incidents", "group_id": "GRP-IT", "support_team": "T1-Support", "assigned_to": "Alice",
			"created_at": ago(day), "updated_at": ago(2 * time.Hour)},
		{"rfc_number": "RFC456", "title": "Request for new software license", "status": "In Progress",
			"priority": "Medium", "category": "Requests", "group_id": "GRP-FIN", "support_team": "T2-Finance-Apps",
			"assigned_to": "Bob", "created_at": ago(5 * day), "updated_at": ago(day)},
		{"rfc_number": "RFC789", "title": "Email server is slow", "status": StatusOpen, "priority": "High",
			"category": "Incidents", "group_id": "GRP-IT", "support_team": "T1-Support", "assigned_to": "Alice",
			"created_at": ago(6 * time.Hour), "updated_at": ago(30 * time.Minute)},
		{"rfc_number": "RFC102", "title": "Cannot access shared drive", "status": StatusClosed, "priority": "Low",
			"category": "Incidents", "group_id": "GRP-IT", "support_team": "T1-Support", "assigned_to": "Charlie",
			"created_at": ago(10 * day), "updated_at": ago(8 * day), "resolution_time_seconds": float64(172800)},
		{"rfc_number": "RFC105", "title": "Quarterly financial report access", "status": StatusClosed,
			"priority": "Medium", "category": "Requests", "group_id": "GRP-FIN", "support_team": "T2-Finance-Apps",
			"assigned_to": "Bob", "created_at": ago(20 * day), "updated_at": ago(15 * day),
			"resolution_time_seconds": float64(432000)},
	}

	history := map[string][]StatusChange{
		"RFC123": {{StatusOpen, ago(day)}},
		"RFC456": {{StatusOpen, ago(5 * day)}, {"In Progress", ago(day)}},
		"RFC789": {{StatusOpen, ago(6 * time.Hour)}},
		"RFC102": {{StatusOpen, ago(10 * day)}, {StatusClosed, ago(8 * day)}},
		"RFC105": {{StatusOpen, ago(20 * day)}, {StatusClosed, ago(15 * day)}},
	}

	for _, t := range seed {
		rfc := t["rfc_number"].(string)
		s.tickets[rfc] = t
		s.order = append(s.order, rfc)
		s.history[rfc] = history[rfc]
	}

	s.next = firstNumber + len(seed)
}

func orDefault(v *string, def string) any {
	if v == nil {
		return def
	}
	return *v
}

// nextNumber skips numbers already taken by seeded tickets. Callers hold mu.
func (s *Store) nextNumber() string {
	for {
		rfc := fmt.Sprintf("RFC%d", s.next)
		s.next++
		if _, taken := s.tickets[rfc]; !taken {
			return rfc
		}
	}
}

func (s *Store) Create(in NewTicket) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := timestamp(s.now())
	rfc := s.nextNumber()

	var assignedTo any
	if in.AssignedTo != nil {
		assignedTo = *in.AssignedTo
	}

	t := Ticket{
		"rfc_number":   rfc,
		"title":        in.Title,
		"status":       StatusOpen,
		"priority":     in.Priority,
		"category":     in.Category,
		"group_id":     orDefault(in.GroupID, defaultGroupID),
		"support_team": orDefault(in.SupportTeam, defaultSupportTeam),
		"assigned_to":  assignedTo,
		"created_at":   now,
		"updated_at":   now,
	}

	s.tickets[rfc] = t
	s.order = append(s.order, rfc)
	s.history[rfc] = []StatusChange{{StatusOpen, now}}

	return maps.Clone(t)
}

// Update merges fields into the ticket. A status change is recorded in the
// history; reaching Closed also sets the resolution time.
func (s *Store) Update(rfc string, fields map[string]any) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[rfc]
	if !ok {
		return nil, ErrTicketNotFound
	}

	before := t["status"]

	maps.Copy(t, fields)
	t["rfc_number"] = rfc

	now := s.now()
	t["updated_at"] = timestamp(now)

	if after, _ := t["status"].(string); after != before {
		s.history[rfc] = append(s.history[rfc], StatusChange{after, timestamp(now)})
		if after == StatusClosed {
			s.setResolution(t, now)
		}
	}

	return maps.Clone(t), nil
}

func (s *Store) Close(rfc, comment string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[rfc]
	if !ok {
		return nil, ErrTicketNotFound
	}

	now := s.now()

	t["status"] = StatusClosed
	t["closing_comment"] = comment
	t["updated_at"] = timestamp(now)
	s.setResolution(t, now)

	s.history[rfc] = append(s.history[rfc], StatusChange{StatusClosed, timestamp(now)})

	return maps.Clone(t), nil
}

func (s *Store) setResolution(t Ticket, now time.Time) {
	created, ok := t["created_at"].(string)
	if !ok {
		return
	}
	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return
	}
	t["resolution_time_seconds"] = now.Sub(at).Seconds()
}

func (s *Store) Get(rfc string) (Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[rfc]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return maps.Clone(t), nil
}

func (s *Store) History(rfc string) ([]StatusChange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.history[rfc]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return slices.Clone(h), nil
}

// List returns the matching tickets in creation order, paged by f.
func (s *Store) List(f Filter) []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := func(t Ticket, key, want string) bool {
		if want == "" {
			return true
		}
		v, _ := t[key].(string)
		return v == want
	}

	res := []Ticket{}
	for _, rfc := range s.order {
		t := s.tickets[rfc]
		if matches(t, "status", f.Status) && matches(t, "priority", f.Priority) &&
			matches(t, "group_id", f.GroupID) && matches(t, "assigned_to", f.AssignedTo) {
			res = append(res, t)
		}
	}

	start := min(max(f.Offset, 0), len(res))
	end := min(start+max(f.Limit, 0), len(res))

	page := make([]Ticket, 0, end-start)
	for _, t := range res[start:end] {
		page = append(page, maps.Clone(t))
	}
	return page
}

// ResolutionMetrics averages resolution_time_seconds of closed tickets per
// support team.
func (s *Store) ResolutionMetrics() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := map[string]float64{}
	counts := map[string]int{}

	for _, t := range s.tickets {
		if t["status"] != StatusClosed {
			continue
		}
		seconds, ok := toFloat(t["resolution_time_seconds"])
		if !ok {
			continue
		}

		team, _ := t["support_team"].(string)
		if team == "" {
			team = unassignedTeam
		}
		sums[team] += seconds
		counts[team]++
	}

	avg := make(map[string]float64, len(sums))
	for team, sum := range sums {
		avg[team] = sum / float64(counts[team])
	}
	return avg
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case interface{ Float64() (float64, error) }:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
