// Package central provides a Go client for the Sophos Central REST API.
//
// The client handles the OAuth2 client-credentials flow, discovers the
// caller's identity and data region through the whoami endpoint, and maps
// transport and HTTP failures onto three error types.
//
// # Quick Start
//
//	client, err := central.NewClient(
//	    central.WithCredentials(clientID, clientSecret),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	page, err := client.Endpoints.List(ctx, &central.EndpointFilter{
//	    HealthStatus: []string{"bad"},
//	}, central.PageOptions{PageSize: 50})
//
// The first call exchanges the credentials for a token and resolves the data
// region. Tokens are reused until 60 seconds before they expire; discovery
// runs once per client. Passing both WithTenantID and WithAPIURL skips
// discovery entirely.
//
// # Raw Requests
//
// Paths not covered by a service can be called directly:
//
//	var out map[string]any
//	err := client.Get(ctx, "/endpoint/v1/settings/tamper-protection", nil, &out)
//
//	// Partner and organization APIs live on the global host.
//	err = client.Get(ctx, "/partner/v1/admins", nil, &out, central.WithGlobalHost())
//
// # Error Handling
//
// Every failure is a *ClientError, *AuthError or *RateLimitError:
//
//	_, err := client.Alerts.Get(ctx, id)
//	var rl *central.RateLimitError
//	if errors.As(err, &rl) && rl.RetryAfter != nil {
//	    time.Sleep(*rl.RetryAfter)
//	}
//
// The client never retries on its own. A 401 or 403 drops the cached token so
// the next call authenticates again.
//
// # Pagination
//
// List methods return a single Page. All methods walk every page lazily:
//
//	for ep, err := range client.Endpoints.All(ctx, nil) {
//	    // ...
//	}
//
//	tenants, err := central.Collect(client.Tenants.All(ctx))
package central
