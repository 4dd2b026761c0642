package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/tokenauth"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Require returns middleware that answers 401 unless the request carries a
// valid credential.
func Require(auth *tokenauth.Authority) func(http.Handler) http.Handler {
	return Guard(auth, true)
}

// Optional returns middleware that validates a credential when present and
// otherwise serves the request anonymously.
func Optional(auth *tokenauth.Authority) func(http.Handler) http.Handler {
	return Guard(auth, false)
}

func Guard(auth *tokenauth.Authority, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				writeUnauthorized(w, nil)
				return
			}

			payload, err := auth.Validate(r.Context(), r.Header.Get(auth.Authorization()), required)
			if err != nil {
				writeUnauthorized(w, err)
				return
			}
			if payload == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := tokenauth.WithPayload(r.Context(), payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	body := errorBody{Error: tokenauth.ErrUnauthorized.Error()}
	var ue *tokenauth.UnauthorizedError
	if errors.As(err, &ue) {
		body.Detail = ue.Detail
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(body)
}
