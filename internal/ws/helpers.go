package ws

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

func newConnID() string {
	return uuid.NewString()
}

// tokenFromRequest reads a bearer token from the Authorization header or the
// token query parameter.
func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return r.URL.Query().Get("token")
}
