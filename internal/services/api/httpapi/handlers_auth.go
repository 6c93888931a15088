package httpapi

import (
	"net/http"
	"time"

	"github.com/NordCoder/Tasker/internal/services/api/account"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message               string `json:"message"`
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken           string `json:"access_token"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
}

func seconds(d time.Duration) int64 { return int64(d / time.Second) }

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	if _, err := s.accounts.Register(r.Context(), account.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, message{Message: "Successfully User Created."})
	return nil
}

// login takes the client identity from User-Agent.
func (s *Server) login(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	out, err := s.sessions.Login(r.Context(), req.Email, req.Password, r.UserAgent())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, loginResponse{
		Message:               "Login successful",
		AccessToken:           out.AccessToken,
		ExpiresIn:             seconds(out.ExpiresIn),
		RefreshToken:          out.RefreshToken,
		RefreshTokenExpiresIn: seconds(out.RefreshExpiresIn),
	})
	return nil
}

// refreshToken is public: the new access token carries the identity of the
// refresh token, whatever the Authorization header says.
func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req refreshRequest
	if err := decode(w, r, &req); err != nil {
		return err
	}
	out, err := s.sessions.Renew(r.Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, refreshResponse{
		AccessToken:           out.AccessToken,
		ExpiresIn:             seconds(out.ExpiresIn),
		RefreshToken:          out.RefreshToken,
		RefreshTokenExpiresIn: seconds(out.RefreshExpiresIn),
	})
	return nil
}
