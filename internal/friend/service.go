package friend

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTargetNotFound = errors.New("目标用户不存在")
	ErrSelfRelation   = errors.New("不能与自己建立好友关系")
)

// UserChecker 判断一个用户是否存在
type UserChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// BattleLogs 提供好友对战记录的查询
type BattleLogs interface {
	LatestSent(ctx context.Context, senderID string, receiverIDs []string) ([]battle.BattleLog, error)
}

var ordering = query.Ordering{
	Columns: query.Columns{
		"objectId":  "object_id",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Fallback: "created_at",
}

// Service 提供好友关系的读写
type Service struct {
	db      *gorm.DB
	users   UserChecker
	battles BattleLogs
}

func NewService(db *gorm.DB, users UserChecker, battles BattleLogs) *Service {
	return &Service{db: db, users: users, battles: battles}
}

// Query 按条件查询
func (s *Service) Query(ctx context.Context, req query.Request) ([]FriendRelation, error) {
	f := DecodeFilter(req.Where)
	db := s.db.WithContext(ctx)
	if f.Member.Kind == query.PointerEquals {
		db = db.Where("user1_id = ? OR user2_id = ?", f.Member.ID, f.Member.ID)
	}

	var rows []FriendRelation
	if err := req.Apply(db, ordering).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询FriendRelation失败: %w", err)
	}
	return rows, nil
}

// Create 建立好友关系。关系已存在（无论方向）时返回已有记录，created为false。
func (s *Service) Create(ctx context.Context, a, b string) (rel FriendRelation, created bool, err error) {
	if a == b {
		return FriendRelation{}, false, ErrSelfRelation
	}
	key := pairKey(a, b)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := FriendRelation{User1ID: a, User2ID: b, PairKey: key}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			rel, created = row, true
			return nil
		}
		var existing FriendRelation
		if err := tx.Where("pair_key = ?", key).First(&existing).Error; err != nil {
			return err
		}
		rel = existing
		return nil
	})
	if err != nil {
		return FriendRelation{}, false, fmt.Errorf("创建好友关系失败: %w", err)
	}
	return rel, created, nil
}

// Delete 删除好友关系
func (s *Service) Delete(ctx context.Context, objectID string) error {
	res := s.db.WithContext(ctx).Where("object_id = ?", objectID).Delete(&FriendRelation{})
	if res.Error != nil {
		return fmt.Errorf("删除FriendRelation %s 失败: %w", objectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddFriend 为当前用户添加好友，目标用户必须存在
func (s *Service) AddFriend(ctx context.Context, userID, targetID string) (FriendRelation, error) {
	if userID == targetID {
		return FriendRelation{}, ErrSelfRelation
	}
	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return FriendRelation{}, err
	}
	if !exists {
		return FriendRelation{}, ErrTargetNotFound
	}
	rel, _, err := s.Create(ctx, userID, targetID)
	return rel, err
}

// FriendIDs 返回用户全部好友的id，按建立关系的先后排序
func (s *Service) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []FriendRelation
	err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询用户 %s 的好友失败: %w", userID, err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Other(userID))
	}
	return ids, nil
}

// LatestBattleLogPerFriend 对每个好友返回当前用户发给他的最新一条对战记录
func (s *Service) LatestBattleLogPerFriend(ctx context.Context, userID string) ([]battle.BattleLog, error) {
	ids, err := s.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []battle.BattleLog{}, nil
	}
	return s.battles.LatestSent(ctx, userID, ids)
}
