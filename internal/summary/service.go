package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound 表示目标用户不存在
	ErrUserNotFound = errors.New("用户不存在")
	// ErrUnknownCurrency 表示管理命令给出了未知的货币名
	ErrUnknownCurrency = errors.New("未知的货币类型")
)

// UserChecker 判断一个用户是否存在
type UserChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Currency 是管理工具可以修改的数值字段
type Currency string

const (
	CurrencyRuby        Currency = "ruby"
	CurrencyGem         Currency = "gem"
	CurrencyMoecrystal  Currency = "moecrystal"
	CurrencyFriendPoint Currency = "fp"
)

func (c Currency) column() (string, error) {
	switch c {
	case CurrencyRuby:
		return "ruby", nil
	case CurrencyGem:
		return "gem", nil
	case CurrencyMoecrystal:
		return "moecrystal", nil
	case CurrencyFriendPoint:
		return "friend_point", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCurrency, c)
}

var ordering = query.Ordering{
	Columns: query.Columns{
		"objectId":    "object_id",
		"createdAt":   "created_at",
		"updatedAt":   "updated_at",
		"displayName": "display_name",
		"friendPoint": "friend_point",
		"friendLimit": "friend_limit",
		"ruby":        "ruby",
		"gem":         "gem",
		"moecrystal":  "moecrystal",
	},
	Fallback: "created_at",
}

// Service 提供UserSummary的读写
type Service struct {
	db    *gorm.DB
	users UserChecker
}

// NewService 创建服务
func NewService(db *gorm.DB, users UserChecker) *Service {
	return &Service{db: db, users: users}
}

// CreateInitial 在调用方的事务中为新用户创建零余额的UserSummary
func CreateInitial(tx *gorm.DB, userID string) error {
	row := UserSummary{UserID: userID, FriendLimit: DefaultFriendLimit}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("无法为用户 %s 创建UserSummary: %w", userID, err)
	}
	return nil
}

// Query 按条件查询。按用户指针查询且该用户尚无记录时，会先为其补建一条默认记录。
func (s *Service) Query(ctx context.Context, req query.Request) ([]UserSummary, error) {
	filter := DecodeFilter(req.Where)

	var rows []UserSummary
	db := filter.User.Apply(s.db.WithContext(ctx), "user_id")
	if err := req.Apply(db, ordering).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询UserSummary失败: %w", err)
	}
	if len(rows) > 0 || filter.User.Kind != query.PointerEquals || req.Skip > 0 {
		return rows, nil
	}

	exists, err := s.users.Exists(ctx, filter.User.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return rows, nil
	}
	created, err := s.Create(ctx, CreateInput{UserID: filter.User.ID, FriendLimit: DefaultFriendLimit})
	if err != nil {
		return nil, err
	}
	zap.L().Info("按需补建UserSummary", zap.String("userId", created.UserID), zap.String("objectId", created.ObjectID))
	return []UserSummary{created}, nil
}

// Create 创建UserSummary。该用户已有记录时原样返回已有记录，不修改任何字段。
func (s *Service) Create(ctx context.Context, in CreateInput) (UserSummary, error) {
	var result UserSummary
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := UserSummary{
			UserID:      in.UserID,
			DisplayName: in.DisplayName,
			FriendPoint: in.FriendPoint,
			FriendLimit: in.FriendLimit,
			Ruby:        in.Ruby,
			Gem:         in.Gem,
			Moecrystal:  in.Moecrystal,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			result = row
			return nil
		}

		// 唯一约束冲突，返回已有的记录
		var existing UserSummary
		if err := tx.Where("user_id = ?", in.UserID).First(&existing).Error; err != nil {
			return err
		}
		result = existing
		return nil
	})
	if err != nil {
		return UserSummary{}, fmt.Errorf("创建UserSummary失败: %w", err)
	}
	return result, nil
}

// Update 应用客户端更新并返回新的updatedAt
func (s *Service) Update(ctx context.Context, objectID string, p Patch) (time.Time, error) {
	now := time.Now().UTC()
	updates := map[string]any{"updated_at": now}
	if p.DisplayName != nil {
		updates["display_name"] = *p.DisplayName
	}
	if p.FriendPoint != nil {
		updates["friend_point"] = *p.FriendPoint
	}
	if p.FriendLimit != nil {
		updates["friend_limit"] = *p.FriendLimit
	}

	res := s.db.WithContext(ctx).Model(&UserSummary{}).Where("object_id = ?", objectID).Updates(updates)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("更新UserSummary %s 失败: %w", objectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	return now, nil
}

// GetByUser 返回用户的UserSummary
func (s *Service) GetByUser(ctx context.Context, userID string) (UserSummary, error) {
	var row UserSummary
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return UserSummary{}, err
	}
	return row, nil
}

// SetCurrency 把某项数值设为固定值，用户尚无记录时先补建
func (s *Service) SetCurrency(ctx context.Context, userID string, c Currency, value int) (UserSummary, error) {
	return s.adjust(ctx, userID, c, value)
}

// AddCurrency 给某项数值增加delta（可为负），用户尚无记录时先补建
func (s *Service) AddCurrency(ctx context.Context, userID string, c Currency, delta int) (UserSummary, error) {
	column, err := c.column()
	if err != nil {
		return UserSummary{}, err
	}
	return s.adjust(ctx, userID, c, gorm.Expr(column+" + ?", delta))
}

func (s *Service) adjust(ctx context.Context, userID string, c Currency, value any) (UserSummary, error) {
	column, err := c.column()
	if err != nil {
		return UserSummary{}, err
	}
	if err := s.ensure(ctx, userID); err != nil {
		return UserSummary{}, err
	}

	var row UserSummary
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserSummary{}).Where("user_id = ?", userID).Updates(map[string]any{
			column:       value,
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		return tx.Where("user_id = ?", userID).First(&row).Error
	})
	if err != nil {
		return UserSummary{}, fmt.Errorf("修改用户 %s 的 %s 失败: %w", userID, c, err)
	}
	return row, nil
}

// ensure 确认用户存在并保证其拥有UserSummary
func (s *Service) ensure(ctx context.Context, userID string) error {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	_, err = s.Create(ctx, CreateInput{UserID: userID, FriendLimit: DefaultFriendLimit})
	return err
}
