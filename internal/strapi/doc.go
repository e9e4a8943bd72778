// Package strapi implements the provider.DataProvider contract against a
// Strapi v4 REST API. It builds bracket-notation queries, converts record
// shapes through the transcode package, and performs the HTTP exchanges
// through an injected client, optionally guarded by a circuit breaker and
// instrumented with traces and metrics.
//
// Usage:
//
//	client, err := strapi.New(&cfg.CMS,
//		strapi.WithLogger(logger),
//		strapi.WithMetrics(metrics),
//	)
//	if err != nil {
//		return err
//	}
//	result, err := client.GetList(ctx, "posts", params)
//
// Batch operations (UpdateMany, DeleteMany) fan out one request per id
// concurrently and fail wholesale on the first sub-request failure in
// input order. All other operations are single round trips; retries,
// timeouts, and cancellation belong to the injected http.Client and the
// calling context.
package strapi
