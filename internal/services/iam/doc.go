// Package iam resolves request identities and tracks web sessions.
//
// It provides:
//
//   - IdentityResolver: bearer token and form credential resolution against the person store
//   - SessionRegistry: the in-memory registry of web sessions, capped per identity
//   - InvalidationService: expires every session of an identity after a credential change
//   - VersionCache: optional short-lived cache of identity versions for the consistency filter
//   - Authenticator implementations used by the HTTP middleware
//
// Request Flow:
//
//	API:  Authorization header → BearerAuthenticator → IdentityResolver → Principal
//	Web:  session cookie → SessionAuthenticator → SessionRegistry → Principal
//	      ↓
//	   consistency filter → VersionCache/IdentityResolver → ReplacePrincipal when stale
//
// Roles are snapshotted into the Principal at login. A role change bumps the
// stored version; the consistency filter notices the bump on the next request
// and swaps the session principal in place.
package iam
