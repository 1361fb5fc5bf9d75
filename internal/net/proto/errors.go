package proto

import (
	"errors"
	"net/http"

	"roadrunner/server/internal/game"
	"roadrunner/server/internal/world"
)

const (
	CodeMapNotFound     = "mapNotFound"
	CodeBadRequest      = "badRequest"
	CodeInvalidArgument = "invalidArgument"
	CodeInvalidMethod   = "invalidMethod"
	CodeInvalidToken    = "invalidToken"
	CodeUnknownToken    = "unknownToken"
	CodeInternal        = "internalError"
)

// Classify maps an application error onto its wire code and HTTP status.
func Classify(err error) (string, int) {
	switch {
	case errors.Is(err, game.ErrMapNotFound):
		return CodeMapNotFound, http.StatusNotFound
	case errors.Is(err, game.ErrInvalidToken):
		return CodeInvalidToken, http.StatusUnauthorized
	case errors.Is(err, game.ErrUnknownToken):
		return CodeUnknownToken, http.StatusUnauthorized
	case errors.Is(err, game.ErrInvalidName),
		errors.Is(err, world.ErrInvalidDirection),
		errors.Is(err, game.ErrInvalidTimeDelta):
		return CodeInvalidArgument, http.StatusBadRequest
	case errors.Is(err, game.ErrManualTickDisabled):
		return CodeBadRequest, http.StatusBadRequest
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}
