// Package tickets maps the gateway's RPC methods onto backend ticket calls.
package tickets

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tulinowpavel/ticketgate"
	"github.com/tulinowpavel/ticketgate/report"
)

// Caller performs one backend operation. *backend.Client implements it.
type Caller interface {
	Call(ctx context.Context, verb, path string, body any, query url.Values) (json.RawMessage, error)
}

type Service struct {
	backend   Caller
	accountID string
}

func NewService(backend Caller, accountID string) *Service {
	return &Service{
		backend:   backend,
		accountID: accountID,
	}
}

func ticketPath(rfc string, rest ...string) string {
	p := "tickets/" + url.PathEscape(rfc)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func (s *Service) accountQuery() url.Values {
	return url.Values{"account_id": []string{s.accountID}}
}

func (s *Service) CreateTicket(ctx context.Context, args CreateTicketArgs) (json.RawMessage, error) {
	body := map[string]any{
		"account_id":  s.accountID,
		"title":       args.Title,
		"description": args.Description,
		"category":    args.Category,
		"priority":    args.Priority,
	}
	if args.SupportTeam != "" {
		body["support_team"] = args.SupportTeam
	}
	if args.AssignedTo != "" {
		body["assigned_to"] = args.AssignedTo
	}
	if args.GroupID != "" {
		body["group_id"] = args.GroupID
	}

	return s.backend.Call(ctx, http.MethodPost, "tickets", body, nil)
}

// UpdateTicket sends the caller's fields as they are. The configured account
// id always replaces a caller supplied one.
func (s *Service) UpdateTicket(ctx context.Context, args UpdateTicketArgs) (json.RawMessage, error) {
	body := make(map[string]any, len(args.Params)+1)
	maps.Copy(body, args.Params)
	body["account_id"] = s.accountID

	return s.backend.Call(ctx, http.MethodPut, ticketPath(args.RFCNumber), body, nil)
}

func (s *Service) AssignTicket(ctx context.Context, args AssignTicketArgs) (json.RawMessage, error) {
	body := map[string]any{
		"account_id":  s.accountID,
		"assigned_to": args.AssignedTo,
	}

	return s.backend.Call(ctx, http.MethodPut, ticketPath(args.RFCNumber), body, nil)
}

func (s *Service) CloseTicket(ctx context.Context, args CloseTicketArgs) (json.RawMessage, error) {
	body := map[string]any{
		"account_id": s.accountID,
		"status":     "closed",
		"comment":    args.Comment,
	}

	return s.backend.Call(ctx, http.MethodPut, ticketPath(args.RFCNumber, "close"), body, nil)
}

func (s *Service) GetTicket(ctx context.Context, args TicketRefArgs) (json.RawMessage, error) {
	return s.backend.Call(ctx, http.MethodGet, ticketPath(args.RFCNumber), nil, s.accountQuery())
}

func (s *Service) GetTicketHistory(ctx context.Context, args TicketRefArgs) (json.RawMessage, error) {
	return s.backend.Call(ctx, http.MethodGet, ticketPath(args.RFCNumber, "history"), nil, s.accountQuery())
}

// ListTickets returns the tickets array of the backend answer. A missing or
// null array yields an empty list.
func (s *Service) ListTickets(ctx context.Context, args TicketFilterArgs) ([]json.RawMessage, error) {
	query := s.accountQuery()
	query.Set("limit", strconv.Itoa(args.Limit))
	query.Set("offset", strconv.Itoa(args.Offset))

	for key, val := range map[string]string{
		"group_id":    args.GroupID,
		"status":      args.Status,
		"priority":    args.Priority,
		"assigned_to": args.AssignedTo,
	} {
		if val != "" {
			query.Set(key, val)
		}
	}

	raw, err := s.backend.Call(ctx, http.MethodGet, "tickets", nil, query)
	if err != nil {
		return nil, err
	}

	var page struct {
		Tickets []json.RawMessage `json:"tickets"`
	}
	if err = json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("failed to decode ticket list: %w", err)
	}
	if page.Tickets == nil {
		page.Tickets = []json.RawMessage{}
	}

	return page.Tickets, nil
}

func (s *Service) GetTicketsByGroup(ctx context.Context, args GroupArgs) ([]json.RawMessage, error) {
	return s.ListTickets(ctx, TicketFilterArgs{GroupID: args.GroupID, Limit: defaultListLimit})
}

func (s *Service) GetTicketsByStatus(ctx context.Context, args StatusArgs) ([]json.RawMessage, error) {
	return s.ListTickets(ctx, TicketFilterArgs{Status: args.Status, Limit: defaultListLimit})
}

func (s *Service) GetTicketsByPriority(ctx context.Context, args PriorityArgs) ([]json.RawMessage, error) {
	return s.ListTickets(ctx, TicketFilterArgs{Priority: args.Priority, Limit: defaultListLimit})
}

func (s *Service) GetResolutionMetrics(ctx context.Context, _ ticketgate.NoArgs) (json.RawMessage, error) {
	return s.backend.Call(ctx, http.MethodGet, "metrics/resolution", nil, s.accountQuery())
}

// GenerateReport lists the filtered tickets and renders them. The report type
// is checked first so an unsupported type costs no backend call.
func (s *Service) GenerateReport(ctx context.Context, args ReportArgs) (string, error) {
	if !report.Supported(args.ReportType) {
		_, err := report.Render(args.ReportType, nil, report.Options{})
		return "", err
	}

	raw, err := s.ListTickets(ctx, args.Filters)
	if err != nil {
		return "", err
	}

	tickets, err := report.Decode(raw)
	if err != nil {
		return "", err
	}

	return report.Render(args.ReportType, tickets, report.Options{Extended: args.Extended})
}
