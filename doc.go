// Package tokenauth issues, renews and validates bearer tokens on top of
// compact HMAC-signed JWTs.
//
// An [Authority] is built from a [Config] that may override the scheme
// keyword ("Bearer") and the signing secret (JWT_SECRET). Tokens travel as
// "<Bearer> <header>.<payload>.<signature>" and carry all of their state:
//
//   - stp: seconds a renewal extends validity by, defaulting to the issue window;
//   - cnt: how many times the token lineage was renewed;
//   - exp: the expiry, set on issue and moved to now+stp on every renewal.
//
// [Authority.Validate] parses an Authorization header value. Missing or
// invalid credentials are an error only when the caller requires them, in
// which case the error matches [ErrUnauthorized].
//
// # Architecture boundaries
//
// tokenauth is the public surface. Signing and verification are delegated to
// a [Signer]; the default one lives in the jwt sub-package. HTTP adapters live
// in middleware and metric exporters under metrics/export.
//
// Lifecycle events can be streamed to an [AuditSink] when Config.Audit is
// enabled; [Authority.Close] flushes them. [Config.Lint] and
// [Authority.SecurityReport] describe risky settings without failing.
//
// # What this package must NOT do
//
//   - Persist sessions, track revocations or rotate keys.
//   - Mutate a payload handed in by the caller.
//   - Fall back to a guessable secret unless explicitly allowed.
package tokenauth
