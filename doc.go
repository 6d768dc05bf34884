/*
Package leadflow hosts the lead-capture wizard of a uPVC doors and windows storefront.

Every open "Get a quote" dialog or contact page owns a wizard session. The session moves
through a fixed list of steps, collects enquiry fields, and on the final step submits a
single lead to the lead-management backend (POST /api/leads).

# Concept

The wizard state is a plain value advanced by a pure reducer (see pkg/domain). The Service
wraps it with persistence, per-session locking and the one side effect of the system: the
lead submission. Hosts (the HTTP API, the terminal wizard, the MCP server) only translate
their I/O into Service calls.

# Usage

	svc, err := leadflow.New(
		leadflow.WithLeadClient(leadsapi.New("https://crm.example.com")),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, _ := svc.Open(ctx, wizard.VariantQuote)
	id := view.State.SessionID

	_, _ = svc.SetField(ctx, id, "name", "Rahul Sharma")
	_, _ = svc.SetField(ctx, id, "phone", "+919876543210")
	_, _ = svc.Advance(ctx, id)
	_, _ = svc.Advance(ctx, id)

	res, err := svc.Submit(ctx, id)
	if err != nil {
		log.Printf("submit failed: %v (%s)", err, res.Notification.Message)
	}
*/
package leadflow
