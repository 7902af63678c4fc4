package controller

import (
	"errors"
	"net/http"

	"editorial_composer/internal/editor"
	"editorial_composer/internal/repository"
	"editorial_composer/internal/service"
	"editorial_composer/internal/util"
	"editorial_composer/internal/workflow"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrDraftNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidForm),
		errors.Is(err, editor.ErrUnknownAction),
		errors.Is(err, workflow.ErrDateRequired):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrSubmissionInFlight),
		errors.Is(err, workflow.ErrDailyInFlight),
		errors.Is(err, workflow.ErrNoPrompt),
		errors.Is(err, workflow.ErrNotCreated):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx *gin.Context, err error) {
	switch code := statusFor(err); code {
	case http.StatusNotFound:
		util.NotFound(ctx)
	case http.StatusInternalServerError:
		util.LogInternalError(ctx, err)
	default:
		util.Error(ctx, code, err.Error())
	}
}
