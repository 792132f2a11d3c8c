package tickets

import (
	"github.com/tulinowpavel/ticketgate"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

var priorities = []string{"High", "Medium", "Low", "Critical"}

type CreateTicketArgs struct {
	Title       string `json:"title" jsonschema:"description=Ticket title"`
	Description string `json:"description" jsonschema:"description=Ticket description"`
	Category    string `json:"category" jsonschema:"description=Ticket category such as Incidents or Requests"`
	Priority    string `json:"priority" jsonschema:"enum=High,enum=Medium,enum=Low,enum=Critical"`
	SupportTeam string `json:"support_team,omitempty" jsonschema:"description=Support team to route the ticket to"`
	AssignedTo  string `json:"assigned_to,omitempty" jsonschema:"description=Person the ticket is assigned to"`
	GroupID     string `json:"group_id,omitempty"`
}

func (a *CreateTicketArgs) Bind(p *ticketgate.Params) {
	p.String("title", &a.Title, ticketgate.NonEmpty)
	p.String("description", &a.Description)
	p.String("category", &a.Category, ticketgate.NonEmpty)
	p.String("priority", &a.Priority, ticketgate.OneOf(priorities...))
	p.OptionalString("support_team", &a.SupportTeam)
	p.OptionalString("assigned_to", &a.AssignedTo)
	p.OptionalString("group_id", &a.GroupID)
}

type UpdateTicketArgs struct {
	RFCNumber string         `json:"rfc_number" jsonschema:"description=RFC number of the ticket"`
	Params    map[string]any `json:"params" jsonschema:"description=Fields to update"`
}

func (a *UpdateTicketArgs) Bind(p *ticketgate.Params) {
	p.String("rfc_number", &a.RFCNumber, ticketgate.NonEmpty)
	p.Object("params", &a.Params, true)
}

type AssignTicketArgs struct {
	RFCNumber  string `json:"rfc_number" jsonschema:"description=RFC number of the ticket"`
	AssignedTo string `json:"assigned_to" jsonschema:"description=Name or id of the assignee"`
}

func (a *AssignTicketArgs) Bind(p *ticketgate.Params) {
	p.String("rfc_number", &a.RFCNumber, ticketgate.NonEmpty)
	p.String("assigned_to", &a.AssignedTo, ticketgate.NonEmpty)
}

type CloseTicketArgs struct {
	RFCNumber string `json:"rfc_number" jsonschema:"description=RFC number of the ticket"`
	Comment   string `json:"comment" jsonschema:"description=Closing comment"`
}

func (a *CloseTicketArgs) Bind(p *ticketgate.Params) {
	p.String("rfc_number", &a.RFCNumber, ticketgate.NonEmpty)
	p.String("comment", &a.Comment)
}

// TicketRefArgs addresses a single ticket.
type TicketRefArgs struct {
	RFCNumber string `json:"rfc_number" jsonschema:"description=RFC number of the ticket"`
}

func (a *TicketRefArgs) Bind(p *ticketgate.Params) {
	p.String("rfc_number", &a.RFCNumber, ticketgate.NonEmpty)
}

type TicketFilterArgs struct {
	GroupID    string `json:"group_id,omitempty"`
	Status     string `json:"status,omitempty" jsonschema:"description=Open or In Progress or Closed or Pending"`
	Priority   string `json:"priority,omitempty" jsonschema:"description=High or Medium or Low or Critical"`
	AssignedTo string `json:"assigned_to,omitempty"`
	Limit      int    `json:"limit,omitempty" jsonschema:"minimum=1,maximum=1000,default=50"`
	Offset     int    `json:"offset,omitempty" jsonschema:"minimum=0,default=0"`
}

func (a *TicketFilterArgs) Bind(p *ticketgate.Params) {
	a.Limit = defaultListLimit

	p.OptionalString("group_id", &a.GroupID)
	p.OptionalString("status", &a.Status)
	p.OptionalString("priority", &a.Priority)
	p.OptionalString("assigned_to", &a.AssignedTo)
	p.Int("limit", &a.Limit, ticketgate.Between(1, maxListLimit))
	p.Int("offset", &a.Offset, ticketgate.AtLeast(0))
}

type GroupArgs struct {
	GroupID string `json:"group_id"`
}

func (a *GroupArgs) Bind(p *ticketgate.Params) {
	p.String("group_id", &a.GroupID, ticketgate.NonEmpty)
}

type StatusArgs struct {
	Status string `json:"status" jsonschema:"description=Open or In Progress or Closed or Pending"`
}

func (a *StatusArgs) Bind(p *ticketgate.Params) {
	p.String("status", &a.Status, ticketgate.NonEmpty)
}

type PriorityArgs struct {
	Priority string `json:"priority" jsonschema:"description=High or Medium or Low or Critical"`
}

func (a *PriorityArgs) Bind(p *ticketgate.Params) {
	p.String("priority", &a.Priority, ticketgate.NonEmpty)
}

type ReportArgs struct {
	ReportType string           `json:"report_type" jsonschema:"enum=summary,enum=csv,enum=html"`
	Filters    TicketFilterArgs `json:"filters,omitempty" jsonschema:"description=Optional filters for the report"`
	Extended   bool             `json:"extended,omitempty" jsonschema:"description=Add the assigned_to column to csv reports"`
}

func (a *ReportArgs) Bind(p *ticketgate.Params) {
	a.Filters.Limit = defaultListLimit

	p.String("report_type", &a.ReportType, ticketgate.NonEmpty)
	p.Nested("filters", &a.Filters)
	p.Bool("extended", &a.Extended)
}
