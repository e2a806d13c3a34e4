// internal/handlers/errors.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pod-backend/internal/i18n"
	"github.com/javajoker/pod-backend/internal/services"
	"github.com/javajoker/pod-backend/internal/utils"
)

// errorKeys selects the translated messages used for a resource.
type errorKeys struct {
	notFound     string
	invalidState string
	locked       string
}

var (
	designErrors       = errorKeys{i18n.KeyDesignNotFound, i18n.KeyDesignInvalidState, i18n.KeyDesignLocked}
	productErrors      = errorKeys{i18n.KeyProductNotFound, i18n.KeyProductInvalidState, i18n.KeyProductLocked}
	notificationErrors = errorKeys{i18n.KeyNotificationNotFound, i18n.KeyValidationInvalid, i18n.KeyValidationInvalid}
)

// respondServiceError maps service sentinel errors onto HTTP responses.
func respondServiceError(c *gin.Context, err error, keys errorKeys) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, keys.notFound)
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, "", err.Error())
	case errors.Is(err, services.ErrInvalidState):
		utils.InvalidStateResponse(c, keys.invalidState)
	case errors.Is(err, services.ErrLockedState):
		utils.LockedStateResponse(c, keys.locked)
	case errors.Is(err, services.ErrStorageFailure):
		utils.StorageFailureResponse(c)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled service error")
		utils.InternalErrorResponse(c)
	}
}

// currentUserID reads the authenticated user, answering 401 when absent.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := utils.GetUserUUIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return userID, ok
}

func optionalUserID(c *gin.Context) *uuid.UUID {
	if userID, ok := utils.GetUserUUIDFromContext(c); ok {
		return &userID
	}
	return nil
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "id"), nil)
		return uuid.Nil, false
	}
	return id, true
}

// readDesignFile reads the "file" part of a multipart request, refusing
// anything larger than maxBytes.
func readDesignFile(c *gin.Context, maxBytes int64) ([]byte, bool) {
	lang := utils.GetLangFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "file"), nil)
		return nil, false
	}
	defer file.Close()

	if maxBytes > 0 && header.Size > maxBytes {
		utils.FileTooLargeResponse(c)
		return nil, false
	}

	reader := io.Reader(file)
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), nil)
		return nil, false
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		utils.FileTooLargeResponse(c)
		return nil, false
	}
	return data, true
}
