package httpapi

import (
	"net/http"
	"strconv"

	"github.com/NordCoder/Tasker/internal/apperr"
	"github.com/NordCoder/Tasker/internal/auth"
	"github.com/NordCoder/Tasker/internal/domain/user"
	"github.com/NordCoder/Tasker/internal/services/api/account"
)

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type adminUserView struct {
	userView
	Role user.Role `json:"role"`
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

type updatedUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func identity(r *http.Request) (auth.Payload, error) {
	p, ok := IdentityFromContext(r.Context())
	if !ok {
		return auth.Payload{}, apperr.Unauthorized("Token is missing.")
	}
	return p, nil
}

// nonEmpty treats "" like an absent field.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (s *Server) getMe(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	u, err := s.accounts.Me(r.Context(), p.ID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]userView{"user": {ID: u.ID, Name: u.Name, Email: u.Email}})
	return nil
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	u, err := s.accounts.Update(r.Context(), p.ID, account.Update{
		Name:     nonEmpty(req.Name),
		Email:    nonEmpty(req.Email),
		Password: nonEmpty(req.Password),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, struct {
		Message     string      `json:"message"`
		UpdatedUser updatedUser `json:"updated_user"`
	}{"Updated user successfully.", updatedUser{Name: u.Name, Email: u.Email}})
	return nil
}

func (s *Server) deleteMe(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	if err := s.accounts.Delete(r.Context(), p.ID); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		return err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return err
	}
	users, err := s.accounts.List(r.Context(), limit, offset)
	if err != nil {
		return err
	}
	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserView{userView: userView{ID: u.ID, Name: u.Name, Email: u.Email}, Role: u.Role})
	}
	writeJSON(w, http.StatusOK, map[string][]adminUserView{"users": out})
	return nil
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	p, err := identity(r)
	if err != nil {
		return err
	}
	if err := s.accounts.DeleteByID(r.Context(), p.ID, params["id"]); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.BadRequest(key + " must be a non-negative integer.")
	}
	return n, nil
}
