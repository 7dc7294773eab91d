package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nacca-sms/nacca-sms-api/internal/middleware"
	"github.com/nacca-sms/nacca-sms-api/internal/models"
	"github.com/nacca-sms/nacca-sms-api/internal/service"
	appErrors "github.com/nacca-sms/nacca-sms-api/pkg/errors"
	"github.com/nacca-sms/nacca-sms-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// actor resolves the caller or writes a 401 and returns false.
func actor(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	return service.ActorFromClaims(claims), true
}

// bindJSON decodes the body into dst or writes a 400 and returns false.
func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(models.DefaultPageSize)))
	return page, size
}

func sendDownload(c *gin.Context, download *service.Download) {
	response.File(c, download.ContentType, download.Filename, download.Data)
}
