/*
Package wizard implements the lead-capture wizard on top of the pure domain reducer.

It provides the variant registry (the quote dialog and the contact page are the same
wizard parameterized by their step lists), the submit validator, the lead payload
builder, and the Submitter that performs the single side-effecting call to the leads
endpoint.

# Submission lifecycle

	validate -> lock (Submitting=true) -> one CreateLead call -> unlock + reset or keep -> notify

A second submit while the first is in flight fails with domain.ErrSubmissionInFlight and
has no other effect. There is no retry; a failed submission keeps every field so the user
can try again.
*/
package wizard
