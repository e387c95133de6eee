package service

import (
	"CheckinVoyage/internal/pkg/consts"
	"CheckinVoyage/internal/pkg/redis"
	"CheckinVoyage/internal/repository"
	"context"
	log "log/slog"
	"strconv"
)

// ProfileService 昵称解析服务接口定义。查失败兜底为占位昵称，永不向调用方报错。
type ProfileService interface {
	DisplayName(ctx context.Context, userID uint64) string
	DisplayNames(ctx context.Context, userIDs []uint64) map[uint64]string
	Invalidate(ctx context.Context, userID uint64)
}

type profileServiceImpl struct {
	userRepo repository.UserRepo
}

func NewProfileService(userRepo repository.UserRepo) ProfileService {
	return &profileServiceImpl{userRepo: userRepo}
}

// DisplayName 缓存优先，未命中回源并回填
func (s *profileServiceImpl) DisplayName(ctx context.Context, userID uint64) string {
	key := consts.ProfileNameKey + strconv.FormatUint(userID, 10)

	if name, err := redis.GetValue(ctx, key); err == nil && name != "" {
		return name
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user.DisplayName == "" {
		return consts.DefaultDisplayName
	}

	if err := redis.SetWithExpiration(ctx, key, user.DisplayName, consts.ProfileNameTTL); err != nil {
		log.Warn("昵称缓存回填失败", "userID", userID, "err", err)
	}
	return user.DisplayName
}

// DisplayNames 批量解析：先查缓存，剩余未命中的一次回源
func (s *profileServiceImpl) DisplayNames(ctx context.Context, userIDs []uint64) map[uint64]string {
	names := make(map[uint64]string, len(userIDs))
	var missed []uint64

	for _, id := range userIDs {
		if _, ok := names[id]; ok {
			continue
		}
		key := consts.ProfileNameKey + strconv.FormatUint(id, 10)
		if name, err := redis.GetValue(ctx, key); err == nil && name != "" {
			names[id] = name
		} else {
			missed = append(missed, id)
		}
	}

	if len(missed) > 0 {
		users, err := s.userRepo.ListByIDs(ctx, missed)
		if err != nil {
			log.Warn("批量查询用户昵称失败", "err", err)
		}
		for _, u := range users {
			if u.DisplayName == "" {
				continue
			}
			names[u.ID] = u.DisplayName
			key := consts.ProfileNameKey + strconv.FormatUint(u.ID, 10)
			_ = redis.SetWithExpiration(ctx, key, u.DisplayName, consts.ProfileNameTTL)
		}
	}

	for _, id := range userIDs {
		if _, ok := names[id]; !ok {
			names[id] = consts.DefaultDisplayName
		}
	}
	return names
}

// Invalidate 用户资料变更后清理缓存
func (s *profileServiceImpl) Invalidate(ctx context.Context, userID uint64) {
	key := consts.ProfileNameKey + strconv.FormatUint(userID, 10)
	if err := redis.DeleteKey(ctx, key); err != nil {
		log.Warn("昵称缓存清理失败", "userID", userID, "err", err)
	}
}
