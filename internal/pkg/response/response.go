package response

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

// Success 成功返回封装
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{Code: Ok, Message: "success", Data: data})
}

// Fail 业务失败返回封装，HTTP 层统一 200
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{Code: businessCode, Message: message})
}

// Error 将错误翻译为业务码。已登记的业务错误按映射表返回，
// 绑定与反序列化错误归为参数问题，其余视为系统异常并记日志。
func Error(c *gin.Context, err error) {
	if code, ok := service.ErrorMap[err]; ok {
		Fail(c, code, err.Error())
		return
	}

	var ve validator.ValidationErrors
	var ute *json.UnmarshalTypeError
	switch {
	case errors.As(err, &ve):
		Fail(c, BadRequest, "参数错误")
	case errors.As(err, &ute):
		Fail(c, BadRequest, "Json错误")
	default:
		log.Error("未登记的业务错误", "err", err)
		Fail(c, InternalServerError, err.Error())
	}
}
