package httpapi

import (
	"errors"

	"github.com/NordCoder/Tasker/internal/apperr"
	"github.com/NordCoder/Tasker/internal/services/api/account"
	"github.com/NordCoder/Tasker/internal/services/api/session"
	"github.com/NordCoder/Tasker/internal/services/api/task"
)

// mapErr translates usecase errors into the client-facing taxonomy.
func mapErr(err error) *apperr.Error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return ae

	case errors.Is(err, session.ErrCredentialsRequired):
		return apperr.BadRequest("Email and password are required fields.")
	case errors.Is(err, session.ErrClientIdentityRequired):
		return apperr.BadRequest("User-Agent header is missing.")
	case errors.Is(err, session.ErrUserNotFound):
		return apperr.NotFound("User not found.")
	case errors.Is(err, session.ErrInvalidPassword):
		return apperr.InvalidCredential("Invalid password.")
	case errors.Is(err, session.ErrRefreshTokenRequired):
		return apperr.BadRequest("refresh_token is required.")
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return apperr.InvalidToken("Invalid refresh token.")

	case errors.Is(err, account.ErrEmailExists):
		return apperr.BadRequest("User already registered.")
	case errors.Is(err, account.ErrNoChanges), errors.Is(err, task.ErrNoChanges):
		return apperr.BadRequest("At least one field is required.")
	case errors.Is(err, account.ErrNotFound):
		return apperr.NotFound("User not found.")
	case errors.Is(err, task.ErrNotFound):
		return apperr.NotFound("Todo not found.")

	default:
		return apperr.ServerFailed(err)
	}
}
