package middleware

import (
	"encoding/json"
	"net/http"

	"battle-pollster/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const CSRFHeader = "X-CSRF-Token"

// CSRFMiddleware guards the front's own mutating routes with a double-submit
// token. Safe requests receive the token in the X-CSRF-Token header.
func CSRFMiddleware(key []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(key,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.RequestHeader(CSRFHeader),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(httpdto.NewErrorResponse("invalid csrf token", "CSRF_FAILED"))
		})),
	)

	return func(c *gin.Context) {
		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Header(CSRFHeader, csrf.Token(r))
			c.Next()
		})).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
		}
	}
}
