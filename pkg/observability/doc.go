/*
Package observability turns wizard lifecycle hooks into logs and Prometheus metrics.

	metrics, _ := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
	svc, _ := leadflow.New(leadflow.WithLifecycleHooks(hooks))
*/
package observability
