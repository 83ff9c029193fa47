package rest

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rbroggi/wasteroute/internal/core/model"
)

// authedHandler is a handler reached only by an authenticated actor holding one of the allowed roles.
type authedHandler func(w http.ResponseWriter, r *http.Request, actor model.Actor, pathParams map[string]string)

func (s *Server) authorized(roles []model.Role, h authedHandler) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		actor, err := s.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !slices.Contains(roles, actor.Role) {
			writeError(w, r, fmt.Errorf("%w: role %q may not call %s %s", model.ErrForbidden, actor.Role, r.Method, r.URL.Path))
			return
		}
		h(w, r, *actor, pathParams)
	}
}

// authenticate verifies the bearer token of the request.
func (s *Server) authenticate(r *http.Request) (*model.Actor, error) {
	raw, ok := bearerToken(r)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", model.ErrUnauthenticated)
	}
	return s.tokens.Verify(raw)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(header[len("Bearer "):])
	return raw, raw != ""
}
