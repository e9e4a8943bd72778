// Package security stamps protective response headers onto the admin
// surface: X-Frame-Options, X-Content-Type-Options, Referrer-Policy,
// Content-Security-Policy, and Strict-Transport-Security for TLS
// traffic. The header set is fixed at construction from the gateway
// configuration.
package security
