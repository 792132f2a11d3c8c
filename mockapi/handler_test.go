package mockapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tulinowpavel/ticketgate"
	"github.com/tulinowpavel/ticketgate/backend"
	"github.com/tulinowpavel/ticketgate/mockapi"
	"github.com/tulinowpavel/ticketgate/tickets"
)

func newStack(t *testing.T, token, clientKey string) *ticketgate.Dispatcher {
	t.Helper()

	srv := httptest.NewServer(mockapi.NewHandler(mockapi.NewStore(nil), token))
	t.Cleanup(srv.Close)

	client := backend.NewClient(backend.Config{
		BaseURL:   srv.URL + "/api/v1",
		APIKey:    clientKey,
		AccountID: "ACC-1",
		Timeout:   5 * time.Second,
	}, backend.WithRetryPolicy(backend.RetryPolicy{MaxAttempts: 1}))

	d := ticketgate.NewDispatcher()
	tickets.Register(d, tickets.NewService(client, client.AccountID()))
	return d
}

func dispatch(t *testing.T, d *ticketgate.Dispatcher, method, params string) map[string]any {
	t.Helper()

	res, err := d.Dispatch(t.Context(), method, json.RawMessage(params))
	require.NoError(t, err)

	raw, ok := res.(json.RawMessage)
	require.True(t, ok, "unexpected result type %T", res)

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestTicketLifecycle(t *testing.T) {
	t.Parallel()

	d := newStack(t, "backend-key", "backend-key")

	created := dispatch(t, d, tickets.MethodCreateTicket,
		`{"title":"Laptop screen flickers","description":"since monday","category":"Incidents","priority":"Medium"}`)
	rfc := created["rfc_number"].(string)
	require.Equal(t, "Open", created["status"])
	require.Equal(t, "T1-Support", created["support_team"])

	assigned := dispatch(t, d, tickets.MethodAssignTicket, `{"rfc_number":"`+rfc+`","assigned_to":"Charlie"}`)
	require.Equal(t, "Charlie", assigned["assigned_to"])
	require.NotContains(t, assigned, "account_id")

	closed := dispatch(t, d, tickets.MethodCloseTicket, `{"rfc_number":"`+rfc+`","comment":"replaced cable"}`)
	require.Equal(t, "Closed", closed["status"])
	require.Equal(t, "replaced cable", closed["closing_comment"])

	res, err := d.Dispatch(t.Context(), tickets.MethodGetTicketHistory, json.RawMessage(`{"rfc_number":"`+rfc+`"}`))
	require.NoError(t, err)

	var history []mockapi.StatusChange
	require.NoError(t, json.Unmarshal(res.(json.RawMessage), &history))
	require.Len(t, history, 2)
	require.Equal(t, "Closed", history[1].Status)
}

func TestListAndReport(t *testing.T) {
	t.Parallel()

	d := newStack(t, "", "any")

	res, err := d.Dispatch(t.Context(), tickets.MethodGetTicketsByPriority, json.RawMessage(`{"priority":"High"}`))
	require.NoError(t, err)
	require.Len(t, res, 2)

	report, err := d.Dispatch(t.Context(), tickets.MethodGenerateReport,
		json.RawMessage(`{"report_type":"summary","filters":{"group_id":"GRP-FIN"}}`))
	require.NoError(t, err)
	require.Equal(t, "Ticket RFC456: Request for new software license (In Progress)\n"+
		"Ticket RFC105: Quarterly financial report access (Closed)", report)

	metrics := dispatch(t, d, tickets.MethodGetResolutionMetrics, `{}`)
	require.Equal(t, map[string]any{"T1-Support": float64(172800), "T2-Finance-Apps": float64(432000)}, metrics)
}

func TestUnknownTicketIsNotFound(t *testing.T) {
	t.Parallel()

	d := newStack(t, "", "any")

	_, err := d.Dispatch(t.Context(), tickets.MethodGetTicket, json.RawMessage(`{"rfc_number":"RFC999"}`))

	rpcErr := ticketgate.ToError(err)
	require.Equal(t, http.StatusNotFound, rpcErr.Code)
	require.JSONEq(t, `{"detail":"Ticket not found"}`, rpcErr.Message)
}

func TestBearerTokenIsChecked(t *testing.T) {
	t.Parallel()

	d := newStack(t, "backend-key", "wrong")

	_, err := d.Dispatch(t.Context(), tickets.MethodGetResolutionMetrics, nil)
	require.Equal(t, http.StatusUnauthorized, ticketgate.ToError(err).Code)
}
