package service

import (
	"CheckinVoyage/internal/api/dto"
	"CheckinVoyage/internal/model"
	"CheckinVoyage/internal/pkg/consts"
	"strconv"

	"github.com/jinzhu/copier"
)

// ContextKey 将可空的房源 ID 规范化为频道段
func ContextKey(contextID *uint64) string {
	if contextID == nil {
		return consts.UnscopedContextKey
	}
	return strconv.FormatUint(*contextID, 10)
}

func toMessageDTO(m *model.Message, senderName string) *dto.MessageDTO {
	var d dto.MessageDTO
	_ = copier.Copy(&d, m)
	d.SenderName = senderName
	return &d
}
