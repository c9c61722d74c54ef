// Package api exposes the dashboard over HTTP.
//
// Routes:
//
//	GET  /healthz               store health, 200 or 503
//	GET  /metrics               Prometheus metrics
//	GET  /v1/dashboard          current dashboard state
//	POST /v1/dashboard/filter   apply {"years": [...], "descending": bool}, 202
//	POST /v1/dashboard/refresh  reload everything, 202
package api
