package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
	ServiceUnavailable  = 503
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrStoreUnavailable  = errors.New("服务暂不可用，请稍后重试")
	ErrTargetUserInvalid = errors.New("目标用户无效")
	ErrSelfMessage       = errors.New("不能给自己发送消息")
	ErrProfileNotFound   = errors.New("用户不存在")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrStoreUnavailable:  ServiceUnavailable,
	ErrTargetUserInvalid: BadRequest,
	ErrSelfMessage:       BadRequest,
	ErrProfileNotFound:   NotFound,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}
