package mail

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidType  = errors.New("无效的奖励类型")
	ErrUserNotFound = errors.New("用户不存在")
)

// Types 是客户端认识的奖励类型
var Types = []string{"Gold", "Gems", "MoeCrystal", "Ruby", "Moetifacts", "MoetanPackages", "AdFree"}

var defaultTitles = map[string]map[string]string{
	"Gold":           {"en": "Gold Reward", "zh": "金币奖励"},
	"Gems":           {"en": "Gem Reward", "zh": "宝石奖励"},
	"MoeCrystal":     {"en": "MoeCrystal Reward", "zh": "萌水晶奖励"},
	"Ruby":           {"en": "Ruby Reward", "zh": "萌魂奖励"},
	"Moetifacts":     {"en": "Artifact Reward", "zh": "神器奖励"},
	"MoetanPackages": {"en": "Character Package", "zh": "角色礼包"},
	"AdFree":         {"en": "Ad-Free Privilege", "zh": "免广告特权"},
}

// DefaultTitle 返回某类奖励的默认标题
func DefaultTitle(rewardType string) map[string]string {
	if t, ok := defaultTitles[rewardType]; ok {
		return t
	}
	return map[string]string{"en": "Reward", "zh": "奖励"}
}

// Recipients 提供收件人的查找
type Recipients interface {
	Exists(ctx context.Context, userID string) (bool, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

var ordering = query.Ordering{
	Columns: query.Columns{
		"objectId":  "object_id",
		"type":      "type",
		"value":     "value",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Fallback: "created_at",
}

type Service struct {
	db    *gorm.DB
	users Recipients
}

func NewService(db *gorm.DB, users Recipients) *Service {
	return &Service{db: db, users: users}
}

// Query 按收件人查询邮件
func (s *Service) Query(ctx context.Context, req query.Request) ([]DropBox, error) {
	f := DecodeFilter(req.Where)
	db := s.db.WithContext(ctx)
	if f.UserID != "" {
		db = db.Where("user_id = ?", f.UserID)
	}

	var rows []DropBox
	if err := req.Apply(db, ordering).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询DropBox失败: %w", err)
	}
	return rows, nil
}

// Delete 删除一封邮件（客户端领取奖励后调用）
func (s *Service) Delete(ctx context.Context, objectID string) error {
	res := s.db.WithContext(ctx).Where("object_id = ?", objectID).Delete(&DropBox{})
	if res.Error != nil {
		return fmt.Errorf("删除DropBox %s 失败: %w", objectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SendInput 是一封邮件的内容，Title为空时使用该类型的默认标题
type SendInput struct {
	Type   string
	Amount string
	Title  string
	Msg    string
}

// Send 给指定用户发送奖励邮件
func (s *Service) Send(ctx context.Context, userID string, in SendInput) (DropBox, error) {
	if !slices.Contains(Types, in.Type) {
		return DropBox{}, ErrInvalidType
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return DropBox{}, err
	}
	if !ok {
		return DropBox{}, ErrUserNotFound
	}

	title := DefaultTitle(in.Type)
	if in.Title != "" {
		title = map[string]string{"en": in.Title, "zh": in.Title}
	}
	row := DropBox{
		UserID: userID,
		Type:   in.Type,
		Title:  parse.EncodeLocalized(title),
		Value:  in.Amount,
		Msg:    in.Msg,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return DropBox{}, fmt.Errorf("发送邮件失败: %w", err)
	}
	return row, nil
}

// SendToAll 逐个给所有用户发送邮件。单个用户失败不会中断其余发送，返回成功数和用户总数。
func (s *Service) SendToAll(ctx context.Context, in SendInput) (sent, total int, err error) {
	if !slices.Contains(Types, in.Type) {
		return 0, 0, ErrInvalidType
	}
	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		if _, err := s.Send(ctx, id, in); err != nil {
			zap.L().Warn("发送邮件失败", zap.String("userId", id), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, len(ids), nil
}

// List 返回某个用户的全部邮件
func (s *Service) List(ctx context.Context, userID string) ([]DropBox, error) {
	var rows []DropBox
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询用户 %s 的邮件失败: %w", userID, err)
	}
	return rows, nil
}

// Clear 删除某个用户的全部邮件，返回删除数量
func (s *Service) Clear(ctx context.Context, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&DropBox{})
	if res.Error != nil {
		return 0, fmt.Errorf("清空用户 %s 的邮件失败: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}
