package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"gorm.io/gorm"
)

var userOrdering = query.Ordering{
	Columns: query.Columns{
		"objectId":  "object_id",
		"username":  "username",
		"email":     "email",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Fallback: "created_at",
}

// UserFilter 是 _User 类支持的查询条件
type UserFilter struct {
	ObjectID query.StringCond
	Username query.StringCond
}

// DecodeUserFilter 从where中解码查询条件
func DecodeUserFilter(where map[string]any) UserFilter {
	return UserFilter{
		ObjectID: query.DecodeStringCond(where, "objectId"),
		Username: query.DecodeStringCond(where, "username"),
	}
}

// UserPatch 是用户更新请求。Email和GoogleUserID区分“未提供”和“清空”。
type UserPatch struct {
	Username        *string
	Password        *string
	EmailSet        bool
	Email           *string
	GoogleUserIDSet bool
	GoogleUserID    *string
}

// DecodeUserPatch 解析更新请求体，googleUserId 可以是 {"__op":"Delete"}
func DecodeUserPatch(body map[string]any) UserPatch {
	var p UserPatch
	if v, ok := body["username"].(string); ok {
		p.Username = &v
	}
	if v, ok := body["password"].(string); ok {
		p.Password = &v
	}
	if v, ok := body["email"]; ok {
		p.EmailSet = true
		if s, ok := v.(string); ok {
			p.Email = &s
		}
	}
	if v, ok := body["googleUserId"]; ok {
		p.GoogleUserIDSet = true
		if s, ok := v.(string); ok && !parse.IsDeleteOp(v) {
			p.GoogleUserID = &s
		}
	}
	return p
}

// Get 按objectId读取用户
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("object_id = ?", userID).First(&user).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

// Exists 判断用户是否存在
func (s *Service) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("object_id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询用户 %s 失败: %w", userID, err)
	}
	return count > 0, nil
}

// ListUsers 按注册时间返回全部用户
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("列出用户失败: %w", err)
	}
	return users, nil
}

// ListUserIDs 按注册时间返回全部用户id
func (s *Service) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&User{}).Order("created_at").Pluck("object_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("列出用户id失败: %w", err)
	}
	return ids, nil
}

// Query 查询 _User 类
func (s *Service) Query(ctx context.Context, req query.Request) ([]User, error) {
	filter := DecodeUserFilter(req.Where)
	db := s.db.WithContext(ctx)
	db = filter.ObjectID.Apply(db, "object_id")
	db = filter.Username.Apply(db, "username")

	var users []User
	if err := req.Apply(db, userOrdering).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return users, nil
}

// Update 应用用户更新并返回新的updatedAt
func (s *Service) Update(ctx context.Context, userID string, p UserPatch) (time.Time, error) {
	now := s.now()
	updates := map[string]any{"updated_at": now}
	if p.Username != nil {
		if *p.Username == "" {
			return time.Time{}, ErrMissingCredentials
		}
		updates["username"] = *p.Username
	}
	if p.Password != nil {
		hash, err := HashPassword(*p.Password)
		if err != nil {
			return time.Time{}, fmt.Errorf("无法计算密码摘要: %w", err)
		}
		updates["password_hash"] = hash
	}
	if p.EmailSet {
		if p.Email != nil {
			updates["email"] = *p.Email
		} else {
			updates["email"] = nil
		}
	}
	if p.GoogleUserIDSet {
		if p.GoogleUserID != nil {
			updates["google_user_id"] = *p.GoogleUserID
		} else {
			updates["google_user_id"] = nil
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.Username != nil {
			var count int64
			if err := tx.Model(&User{}).Where("username = ? AND object_id <> ?", *p.Username, userID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrDuplicateUsername
			}
		}
		if p.GoogleUserID != nil {
			var count int64
			if err := tx.Model(&User{}).Where("google_user_id = ? AND object_id <> ?", *p.GoogleUserID, userID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyLinked
			}
		}

		res := tx.Model(&User{}).Where("object_id = ?", userID).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUsername
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}
