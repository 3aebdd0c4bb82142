package notice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SlpAus/aom-parse-server/internal/parse"
	"github.com/SlpAus/aom-parse-server/internal/query"
	"gorm.io/gorm"
)

// ErrEmptyImageURL 表示试图添加没有图片的公告
var ErrEmptyImageURL = errors.New("公告必须带有图片地址")

// WelcomeText 是管理工具添加公告时使用的默认文本
var WelcomeText = map[string]string{
	"en": "Welcome to Attack on Moe Private Server!",
	"zh": "欢迎来到萌战私服！",
	"ja": "萌え戦争プライベートサーバーへようこそ！",
}

var ordering = query.Ordering{
	Columns: query.Columns{
		"objectId":  "object_id",
		"order":     "sort_order",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Fallback: "sort_order",
	Implicit: "sort_order",
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Query 返回可见的公告。调用方的where条件被忽略，没有图片的公告永远不会返回。
func (s *Service) Query(ctx context.Context, req query.Request) ([]Notice, error) {
	db := s.db.WithContext(ctx).Where("image_url IS NOT NULL AND image_url <> ''")

	var rows []Notice
	if err := req.Apply(db, ordering).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询Notice失败: %w", err)
	}
	return rows, nil
}

// AddInput 是新增公告的内容
type AddInput struct {
	ImageURL string
	Order    int
	Text     map[string]string
	URL      string
}

// Add 新增一条公告
func (s *Service) Add(ctx context.Context, in AddInput) (Notice, error) {
	if strings.TrimSpace(in.ImageURL) == "" {
		return Notice{}, ErrEmptyImageURL
	}
	row := Notice{
		ImageURL:  in.ImageURL,
		SortOrder: in.Order,
		Text:      parse.EncodeLocalized(in.Text),
		URL:       in.URL,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Notice{}, fmt.Errorf("添加公告失败: %w", err)
	}
	return row, nil
}

// Clear 删除全部公告，返回删除的数量
func (s *Service) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Notice{})
	if res.Error != nil {
		return 0, fmt.Errorf("清空公告失败: %w", res.Error)
	}
	return res.RowsAffected, nil
}
