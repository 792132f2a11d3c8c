package tickets

import (
	"strings"

	"github.com/tulinowpavel/ticketgate"
	"github.com/tulinowpavel/ticketgate/report"
)

const (
	MethodCreateTicket         = "create_ticket"
	MethodUpdateTicket         = "update_ticket"
	MethodAssignTicket         = "assign_ticket"
	MethodCloseTicket          = "close_ticket"
	MethodGetTicket            = "get_ticket"
	MethodGetTicketHistory     = "get_ticket_history"
	MethodListTickets          = "list_tickets"
	MethodGetTicketsByGroup    = "get_tickets_by_group"
	MethodGetTicketsByStatus   = "get_tickets_by_status"
	MethodGetTicketsByPriority = "get_tickets_by_priority"
	MethodGetResolutionMetrics = "get_resolution_metrics"
	MethodGenerateReport       = "generate_report"
)

const (
	resultTicket        = "Ticket"
	resultTicketList    = "List[Ticket]"
	resultTicketHistory = "List[StatusChange]"
	resultMetrics       = "ResolutionMetrics"
	resultReport        = "string"
)

// Register adds every ticket method to d. It is called once at startup.
func Register(d *ticketgate.Dispatcher, s *Service) {
	d.Method(MethodCreateTicket).
		SetDocs("Create a ticket for the configured account").
		SetResult(resultTicket).
		SetHandler(ticketgate.NewTypedHandler(s.CreateTicket)).
		Register()

	d.Method(MethodUpdateTicket).
		SetDocs("Update arbitrary fields of a ticket").
		SetResult(resultTicket).
		DefineError(404, "ticket not found").
		SetHandler(ticketgate.NewTypedHandler(s.UpdateTicket)).
		Register()

	d.Method(MethodAssignTicket).
		SetDocs("Assign a ticket to a person").
		SetResult(resultTicket).
		DefineError(404, "ticket not found").
		SetHandler(ticketgate.NewTypedHandler(s.AssignTicket)).
		Register()

	d.Method(MethodCloseTicket).
		SetDocs("Close a ticket with a comment").
		SetResult(resultTicket).
		DefineError(404, "ticket not found").
		SetHandler(ticketgate.NewTypedHandler(s.CloseTicket)).
		Register()

	d.Method(MethodGetTicket).
		SetDocs("Fetch a single ticket").
		SetResult(resultTicket).
		DefineError(404, "ticket not found").
		SetHandler(ticketgate.NewTypedHandler(s.GetTicket)).
		Register()

	d.Method(MethodGetTicketHistory).
		SetDocs("Fetch the status history of a ticket").
		SetResult(resultTicketHistory).
		DefineError(404, "ticket not found").
		SetHandler(ticketgate.NewTypedHandler(s.GetTicketHistory)).
		Register()

	d.Method(MethodListTickets).
		SetDocs("List tickets matching optional filters").
		SetResult(resultTicketList).
		SetHandler(ticketgate.NewTypedHandler(s.ListTickets)).
		Register()

	d.Method(MethodGetTicketsByGroup).
		SetDocs("List tickets of a group").
		SetResult(resultTicketList).
		SetHandler(ticketgate.NewTypedHandler(s.GetTicketsByGroup)).
		Register()

	d.Method(MethodGetTicketsByStatus).
		SetDocs("List tickets with a status").
		SetResult(resultTicketList).
		SetHandler(ticketgate.NewTypedHandler(s.GetTicketsByStatus)).
		Register()

	d.Method(MethodGetTicketsByPriority).
		SetDocs("List tickets with a priority").
		SetResult(resultTicketList).
		SetHandler(ticketgate.NewTypedHandler(s.GetTicketsByPriority)).
		Register()

	d.Method(MethodGetResolutionMetrics).
		SetDocs("Average resolution time per support team").
		SetResult(resultMetrics).
		SetHandler(ticketgate.NewTypedHandler(s.GetResolutionMetrics)).
		Register()

	d.Method(MethodGenerateReport).
		SetDocs("Render the filtered ticket list as one of: "+strings.Join(report.Types(), ", ")).
		SetResult(resultReport).
		DefineError(ticketgate.CodeMethodNotFound, "unsupported report type").
		SetHandler(ticketgate.NewTypedHandler(s.GenerateReport)).
		Register()
}
