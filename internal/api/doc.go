// Package api implements the FieldFlow HTTP API server.
//
// Every request passes through a fixed middleware pipeline before any
// handler runs:
//
//  1. Request ID and structured request logging
//  2. Panic recovery
//  3. CORS and body size limiting
//  4. Authentication: bearer token verification binds a principal to
//     the request context; requests without a token continue
//     unauthenticated
//  5. Subscription guard: tenant-bound callers are refused with a
//     fixed 403 body when their tenant's subscription is inactive
//  6. Route policy: an ordered prefix table maps paths to the roles
//     allowed through them
//
// The pipeline deliberately separates the three concerns: the
// authentication stage decides who the caller is, the guard decides
// whether their tenant may use the service right now, and the route
// policy decides whether their role may use this path. Handlers then
// read the principal's scope from the context and pass it to the
// repositories, which apply tenant filtering at the SQL layer.
//
// Errors returned by the domain layer are translated to a uniform
// JSON envelope by error identity. Unclassified errors, including
// token verification failures, surface as a generic 500 so internal
// details never leak.
//
// The server also hosts a WebSocket activity feed for administrators,
// authenticated with single-use tickets, and publishes tenant
// lifecycle events to the MQTT bus when one is configured.
package api
