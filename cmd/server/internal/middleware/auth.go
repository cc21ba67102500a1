package middleware

import (
	"context"
	"crypto/subtle"
	"os"

	"github.com/alexedwards/argon2id"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/algotester-tools/ccs-eventfeed/internal/config"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
)

// Used when doing a fake compare in the error case of BasicAuthValidator
var defaultHashForError string

const name string = "github.com/algotester-tools/ccs-eventfeed/server/middleware"

var tracer = otel.Tracer(name)

// Generate a hash
func init() {
	var err error

	defaultHashForError, err = argon2id.CreateHash(
		"Qm16Y9f2o0sUq+0dDDHxkKCrGBuOQ4r6S3T2v5g1fYB2ZrGfUjrnV6WJ7QvA1mE=",
		argon2id.DefaultParams,
	)
	if err != nil {
		logger.Logger.Error("error creating default hash", "error", err)
		os.Exit(1)
	}
}

// Does a fake hash and compare for a hard coded password. Keeps the work of
// an unknown-user rejection indistinguishable from a wrong-password one.
func fakePasswordHash(ctx context.Context) {
	_, span := tracer.Start(ctx, "fakePasswordHash")
	defer span.End()

	_, err := argon2id.ComparePasswordAndHash("i am a very real password", defaultHashForError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compare fake password with default hash for error")
		return
	}

	span.AddEvent("compared fake password and default hash for error")
}

type Handler struct {
	Auth *config.AuthConfig
}

// Validates basic auth credentials against the configured username and
// password (argon2id hash when configured, constant-time plaintext compare
// otherwise).
func (h *Handler) BasicAuthValidator(username, password string, c echo.Context) (bool, error) {
	ctx, span := tracer.Start(c.Request().Context(), "BasicAuthValidator")
	defer span.End()

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.Auth.Username)) == 1

	if h.Auth.PasswordHash != "" {
		if !userOK {
			// same amount of hashing work either way
			fakePasswordHash(ctx)
			span.AddEvent("failed login attempt")
			return false, nil
		}

		match, err := argon2id.ComparePasswordAndHash(password, h.Auth.PasswordHash)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to check password against hash")
			return false, echo.ErrInternalServerError
		}

		if match {
			span.AddEvent("successful login attempt")
		} else {
			span.AddEvent("failed login attempt")
		}
		return match, nil
	}

	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.Auth.Password)) == 1
	if userOK && passOK {
		span.AddEvent("successful login attempt")
		return true, nil
	}

	span.AddEvent("failed login attempt")
	return false, nil
}
