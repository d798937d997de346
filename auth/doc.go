// Package auth implements the identity core of the clinic backend:
// registration payload validation, password hashing, JWT issuance and
// validation, the per-request auth guard, and role based authorization.
//
// The package is transport agnostic; HTTP wiring lives in the controllers
// and in middleware/jwtware. Persistence goes through the bun backed
// repositories exposed by RepositoryManager.
package auth
