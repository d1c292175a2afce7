// Package auth authenticates callers of the checkops HTTP API.
//
// Two methods are supported: JWT bearer tokens (JWTVerifier) and static
// API keys stored as SHA-256 hashes (KeyRing). A Chain tries them in order
// and Middleware attaches the resulting Identity to the request context.
//
// Authorization is limited to role checks (RequireRole). Tenant and team
// policy live outside this service.
package auth
