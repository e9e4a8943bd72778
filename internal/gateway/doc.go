// Package gateway is the admin HTTP surface: a gin router exposing the
// nine data-provider operations as a REST API for admin UIs, plus the
// server lifecycle around it. Handlers translate query parameters and
// request bodies into provider params, run the operation, and render
// the {"data": ...} envelopes the UI expects; errors map through the
// shared taxonomy so upstream statuses pass through untouched.
package gateway
