// Package middleware adapts tokenauth.Authority to HTTP stacks.
//
// # Guards
//
//   - [Require]: rejects requests without a valid credential with 401.
//   - [Optional]: lets anonymous requests through; a valid credential is
//     still decoded and attached.
//   - [Gin]: the same two behaviours as a gin.HandlerFunc.
//
// Each guard reads the Authorization header, calls Authority.Validate and
// stores the payload with tokenauth.WithPayload.
//
// # What this package must NOT do
//
//   - Parse or sign tokens directly (delegates to Authority).
//   - Decide anything beyond pass/reject from Authority.Validate.
package middleware
