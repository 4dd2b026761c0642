// Package jwt signs and verifies compact HMAC tokens for tokenauth.
//
// [HMAC] wraps github.com/golang-jwt/jwt/v5. It applies registered claims from
// [SignOptions] (exp, nbf, iss, sub, aud, jti) on top of the caller's claims
// and refuses to overwrite a claim the payload already carries. Verification
// accepts only HS256, HS384 and HS512 and checks exp and nbf with an optional
// leeway.
//
// Tokens whose payload segment is not a JSON object are still verifiable; the
// payload is returned as a raw string.
package jwt
