// Package httpapi is the HTTP transport for the userauth engine.
//
// Routes live under Config.BasePath (default /api/auth) on a gorilla/mux
// router:
//
//	POST  /register            201 {message, user} + session cookies
//	POST  /login               200 {message, user} + session cookies
//	POST  /refresh             200 {message, user} + rotated cookies
//	POST  /logout              200 {message}, cookies cleared
//	GET   /me                  200 {user}            (authenticated)
//	GET   /doctors             200 {doctors}         (authenticated)
//	PATCH /profile             200 {message, user}   (authenticated)
//	GET   /admin/users/{id}    200 {user}            (ADMIN only)
//
// plus GET /health and, when a metrics handler is configured, GET /metrics.
//
// Every error body is {"error": "..."}; [StatusFor] owns the mapping from
// engine sentinels to status codes. Handlers never make security decisions
// themselves: they decode input, call the engine, and translate results.
package httpapi
