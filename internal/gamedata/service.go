package gamedata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"gorm.io/gorm"
)

// GoldsKey 是存档中金币数量的键名
const GoldsKey = "golds"

var (
	ErrUserNotFound      = errors.New("用户不存在")
	ErrMalformedSaveData = errors.New("存档不是合法的JSON对象")
)

// UserChecker 判断一个用户是否存在
type UserChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

var ordering = query.Ordering{
	Columns: query.Columns{
		"objectId":  "object_id",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Fallback: "updated_at",
}

// Service 提供GameData的读写
type Service struct {
	db    *gorm.DB
	users UserChecker
}

func NewService(db *gorm.DB, users UserChecker) *Service {
	return &Service{db: db, users: users}
}

// Query 按条件查询
func (s *Service) Query(ctx context.Context, req query.Request) ([]GameData, error) {
	filter := DecodeFilter(req.Where)
	db := filter.User.Apply(s.db.WithContext(ctx), "user_id")

	var rows []GameData
	if err := req.Apply(db, ordering).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询GameData失败: %w", err)
	}
	return rows, nil
}

// Create 新建一份存档
func (s *Service) Create(ctx context.Context, in CreateInput) (GameData, error) {
	row := GameData{UserID: in.UserID, Data: in.Data}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return GameData{}, fmt.Errorf("创建GameData失败: %w", err)
	}
	return row, nil
}

// Update 覆盖存档内容，data为nil时只刷新updatedAt
func (s *Service) Update(ctx context.Context, objectID string, data *string) (time.Time, error) {
	now := time.Now().UTC()
	updates := map[string]any{"updated_at": now}
	if data != nil {
		updates["data"] = *data
	}
	res := s.db.WithContext(ctx).Model(&GameData{}).Where("object_id = ?", objectID).Updates(updates)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("更新GameData %s 失败: %w", objectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	return now, nil
}

// Latest 返回用户最近更新的一份存档
func (s *Service) Latest(ctx context.Context, userID string) (GameData, error) {
	var row GameData
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").First(&row).Error
	return row, err
}

// SetGold 把用户存档中的金币设为value，返回修改后的数量。
// 存档由客户端整体覆盖写入，客户端需要重新加载存档才能看到结果。
func (s *Service) SetGold(ctx context.Context, userID string, value int64) (int64, error) {
	return s.modifyGold(ctx, userID, func(int64) int64 { return value })
}

// AddGold 给用户存档中的金币增加delta，返回修改后的数量
func (s *Service) AddGold(ctx context.Context, userID string, delta int64) (int64, error) {
	return s.modifyGold(ctx, userID, func(current int64) int64 { return current + delta })
}

func (s *Service) modifyGold(ctx context.Context, userID string, apply func(int64) int64) (int64, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	var result int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row GameData
		err := tx.Where("user_id = ?", userID).Order("updated_at DESC").First(&row).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		save, err := decodeSave(row.Data)
		if err != nil {
			return err
		}
		result = apply(goldsOf(save))
		save[GoldsKey] = result
		encoded, err := json.Marshal(save)
		if err != nil {
			return err
		}

		if row.ObjectID == "" {
			return tx.Create(&GameData{UserID: userID, Data: string(encoded)}).Error
		}
		return tx.Model(&GameData{}).Where("object_id = ?", row.ObjectID).Updates(map[string]any{
			"data":       string(encoded),
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("修改用户 %s 的金币失败: %w", userID, err)
	}
	return result, nil
}

// Progress 是存档中管理工具关心的几个字段
type Progress struct {
	Golds int64
	Stage any
	Wave  any
}

// ProgressOf 读取用户最新存档里的金币、关卡和波次，没有存档时返回零值
func (s *Service) ProgressOf(ctx context.Context, userID string) (Progress, error) {
	row, err := s.Latest(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Progress{}, nil
	}
	if err != nil {
		return Progress{}, err
	}
	save, err := decodeSave(row.Data)
	if err != nil {
		return Progress{}, err
	}
	return Progress{Golds: goldsOf(save), Stage: save["stage"], Wave: save["wave"]}, nil
}

// decodeSave 解析存档，保留数字的原始精度
func decodeSave(raw string) (map[string]any, error) {
	save := map[string]any{}
	if raw == "" {
		return save, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&save); err != nil || save == nil {
		return nil, ErrMalformedSaveData
	}
	return save, nil
}

func goldsOf(save map[string]any) int64 {
	if n, ok := save[GoldsKey].(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i
		}
	}
	if i, ok := parse.Int(save[GoldsKey]); ok {
		return int64(i)
	}
	return 0
}
