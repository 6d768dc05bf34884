/*
Package ports defines the driven ports (interfaces) of the lead-capture wizard.

These interfaces decouple the wizard core from external implementations, allowing
it to work with various storage backends, lead endpoints and notification channels.

# Key Interfaces

  - StateStore: Responsible for persisting and loading wizard State per session.
  - DistributedLocker: Provides distributed locking for concurrent session access across replicas.
  - LeadClient: Delivers a lead payload to the external leads endpoint.
  - Notifier: Surfaces the outcome of a submit attempt to the user.
*/
package ports
