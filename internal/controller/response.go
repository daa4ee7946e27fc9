package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/form"
	"storefront/internal/service"
	"storefront/internal/wizard"
)

// ==================== 统一响应 ====================

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func respondFail(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{
		"code":    status,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// errorStatus 领域错误到 HTTP 状态码
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrWizardNotFound, http.StatusNotFound},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrWizardClosed, http.StatusGone},
	{service.ErrTooManyPictures, http.StatusUnprocessableEntity},
	{service.ErrCartNotBound, http.StatusNotFound},
	{service.ErrRefreshSuperseded, http.StatusConflict},
	{service.ErrInvalidPostalCode, http.StatusBadRequest},
	{service.ErrPostalCodeNotFound, http.StatusNotFound},
	{wizard.ErrSubmissionPending, http.StatusConflict},
	{wizard.ErrUnknownField, http.StatusNotFound},
	{wizard.ErrUnknownGroup, http.StatusNotFound},
	{wizard.ErrPictureNotFound, http.StatusNotFound},
	{wizard.ErrFieldNotOnStep, http.StatusConflict},
	{wizard.ErrNotOnReview, http.StatusConflict},
	{wizard.ErrSelectionOnly, http.StatusBadRequest},
	{wizard.ErrInvalidChoice, http.StatusBadRequest},
}

// respondError 把服务层错误写成统一响应
// 校验错误和提交错误每条消息单独作为一条通知
func respondError(c *gin.Context, err error) {
	var verrs *form.ValidationErrors
	if errors.As(err, &verrs) {
		respondFail(c, http.StatusUnprocessableEntity, "Dados inválidos", gin.H{
			"notifications": verrs.Messages(),
			"fields":        verrs.Fields,
		})
		return
	}

	var serr *service.SubmitError
	if errors.As(err, &serr) {
		status := http.StatusBadGateway
		if serr.Status >= 400 && serr.Status < 500 {
			status = http.StatusUnprocessableEntity
		}
		respondFail(c, status, service.GenericSubmitMessage, gin.H{
			"success":       false,
			"notifications": serr.Messages,
		})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			respondFail(c, e.status, e.err.Error(), nil)
			return
		}
	}

	var rerr *service.RemoteError
	if errors.As(err, &rerr) {
		zap.L().Warn("[API] 远程接口错误", zap.String("path", c.FullPath()), zap.Error(err))
		respondFail(c, http.StatusBadGateway, "Serviço indisponível, tente novamente", nil)
		return
	}

	zap.L().Error("[API] 内部错误", zap.String("path", c.FullPath()), zap.Error(err))
	respondFail(c, http.StatusInternalServerError, "Erro interno", nil)
}

func respondBadRequest(c *gin.Context, err error) {
	respondFail(c, http.StatusBadRequest, "Parâmetros inválidos: "+err.Error(), nil)
}
