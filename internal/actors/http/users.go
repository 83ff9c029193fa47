package rest

import (
	"fmt"
	"net/http"

	"github.com/rbroggi/wasteroute/internal/core/model"
)

type profileRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=30"`
	Address   string `json:"address" validate:"max=200"`
}

type registerRequest struct {
	Username string         `json:"username" validate:"required,min=3,max=30"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8"`
	Role     string         `json:"role" validate:"omitempty,oneof=resident collector admin"`
	Profile  profileRequest `json:"profile"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// register is public for residents. Any other role needs an admin bearer token.
func (s *Server) register(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req registerRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role := model.Role(req.Role)
	if role != "" && role != model.RoleResident {
		actor, err := s.authenticate(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if actor.Role != model.RoleAdmin {
			writeError(w, r, fmt.Errorf("%w: only admins register %s users", model.ErrForbidden, role))
			return
		}
	}

	user, err := s.users.Register(r.Context(), model.RegisterUserArgs{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
		Profile: model.Profile{
			FirstName: req.Profile.FirstName,
			LastName:  req.Profile.LastName,
			Phone:     req.Profile.Phone,
			Address:   req.Profile.Address,
		},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.users.Authenticate(r.Context(), model.AuthenticateArgs{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{User: resp.User, Token: resp.Token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request, actor model.Actor, _ map[string]string) {
	user, err := s.users.GetUser(r.Context(), actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ model.Actor, _ map[string]string) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	role := model.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		writeError(w, r, fmt.Errorf("%w: unknown role %q", model.ErrInvalidArgument, role))
		return
	}
	users, err := s.users.ListUsers(r.Context(), model.ListUsersArgs{Role: role, Limit: limit, Offset: offset})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
