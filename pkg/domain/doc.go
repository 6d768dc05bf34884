/*
Package domain contains the core domain models and pure logic of the lead-capture wizard.

It defines the wizard state, the step variants, the reducer that moves a state from one
snapshot to the next, and the lead payload sent to the external leads endpoint. This package
is kept free of I/O and persistence so every transition is unit-testable on its own.

# Key Entities

  - State: Runtime snapshot of one wizard instance (current step, fields, submitting flag).
  - Variant: A configurable step list (the quote dialog or the contact page).
  - Action: An input to Reduce (set a field, advance, retreat, reset, submission lifecycle).
  - LeadPayload: The JSON body posted to the leads endpoint.
  - Notification: The toast shown to the user after a submit attempt.
*/
package domain
