package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MrEthical07/tokenauth"
)

// GinPayloadKey is the gin context key holding the validated payload.
const GinPayloadKey = "tokenauth.payload"

// Gin returns a gin handler with the same semantics as [Guard]. The payload is
// stored both under GinPayloadKey and in the request context.
func Gin(auth *tokenauth.Authority, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			abortUnauthorized(c, nil)
			return
		}

		payload, err := auth.Validate(c.Request.Context(), c.GetHeader(auth.Authorization()), required)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		if payload != nil {
			c.Set(GinPayloadKey, payload)
			c.Request = c.Request.WithContext(tokenauth.WithPayload(c.Request.Context(), payload))
		}
		c.Next()
	}
}

// GinPayload returns the payload stored by Gin.
func GinPayload(c *gin.Context) (tokenauth.Payload, bool) {
	v, ok := c.Get(GinPayloadKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(tokenauth.Payload)
	return p, ok
}

func abortUnauthorized(c *gin.Context, err error) {
	body := errorBody{Error: tokenauth.ErrUnauthorized.Error()}
	var ue *tokenauth.UnauthorizedError
	if errors.As(err, &ue) {
		body.Detail = ue.Detail
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}
