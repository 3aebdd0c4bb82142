package battle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/query"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ordering = query.Ordering{
	Columns: query.Columns{
		"objectId":      "object_id",
		"createdAt":     "created_at",
		"updatedAt":     "updated_at",
		"receivedAt":    "received_at",
		"senderScore":   "sender_score",
		"receiverScore": "receiver_score",
	},
	Fallback: "created_at",
}

// Service 提供BattleLog的读写
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Query 按条件查询
func (s *Service) Query(ctx context.Context, req query.Request) ([]BattleLog, error) {
	f := DecodeFilter(req.Where)
	db := s.db.WithContext(ctx)
	db = f.Sender.Apply(db, "sender_id")
	db = f.Receiver.Apply(db, "receiver_id")
	db = f.SenderClaim.Apply(db, "sender_claim")
	db = f.ReceiverClaim.Apply(db, "receiver_claim")
	db = f.Expired.Apply(db, "expired")
	db = f.ObjectID.Apply(db, "object_id")

	var rows []BattleLog
	if err := req.Apply(db, ordering).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询BattleLog失败: %w", err)
	}
	return rows, nil
}

func newRow(in CreateInput) BattleLog {
	return BattleLog{
		SenderID:      in.SenderID,
		ReceiverID:    in.ReceiverID,
		SenderScore:   in.SenderScore,
		ReceiverScore: in.ReceiverScore,
		SenderWin:     in.SenderWin,
		SenderClaim:   in.SenderClaim,
		ReceiverClaim: in.ReceiverClaim,
		Expired:       in.Expired,
		ReceivedAt:    in.ReceivedAt,
	}
}

// Create 新建一条对战记录
func (s *Service) Create(ctx context.Context, in CreateInput) (BattleLog, error) {
	row := newRow(in)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return BattleLog{}, fmt.Errorf("创建BattleLog失败: %w", err)
	}
	return row, nil
}

// Outcome 是批量创建中单条记录的结果
type Outcome struct {
	Log BattleLog
	Err error
}

// CreateBatch 在一个事务中依次创建多条记录。单条失败只回滚到它自己的保存点，
// 其余记录在最后统一提交。
func (s *Service) CreateBatch(ctx context.Context, inputs []CreateInput) ([]Outcome, error) {
	outcomes := make([]Outcome, len(inputs))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, in := range inputs {
			savepoint := fmt.Sprintf("battle_batch_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return err
			}
			row := newRow(in)
			if err := tx.Create(&row).Error; err != nil {
				zap.L().Warn("批量创建BattleLog时单条失败", zap.Int("index", i), zap.Error(err))
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return rbErr
				}
				outcomes[i] = Outcome{Err: err}
				continue
			}
			outcomes[i] = Outcome{Log: row}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("批量创建BattleLog失败: %w", err)
	}
	return outcomes, nil
}

// Update 应用更新并返回新的updatedAt
func (s *Service) Update(ctx context.Context, objectID string, p Patch) (time.Time, error) {
	now := time.Now().UTC()
	updates := map[string]any{"updated_at": now}
	if p.SenderScore != nil {
		updates["sender_score"] = *p.SenderScore
	}
	if p.ReceiverScore != nil {
		updates["receiver_score"] = *p.ReceiverScore
	}
	if p.SenderWin != nil {
		updates["sender_win"] = *p.SenderWin
	}
	if p.SenderClaim != nil {
		updates["sender_claim"] = *p.SenderClaim
	}
	if p.ReceiverClaim != nil {
		updates["receiver_claim"] = *p.ReceiverClaim
	}
	if p.Expired != nil {
		updates["expired"] = *p.Expired
	}
	if p.ReceivedAtSet {
		if p.ReceivedAt != nil {
			updates["received_at"] = p.ReceivedAt.UTC()
		} else {
			updates["received_at"] = now
		}
	}

	res := s.db.WithContext(ctx).Model(&BattleLog{}).Where("object_id = ?", objectID).Updates(updates)
	if res.Error != nil {
		return time.Time{}, fmt.Errorf("更新BattleLog %s 失败: %w", objectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return time.Time{}, gorm.ErrRecordNotFound
	}
	return now, nil
}

// Delete 删除一条记录
func (s *Service) Delete(ctx context.Context, objectID string) error {
	res := s.db.WithContext(ctx).Where("object_id = ?", objectID).Delete(&BattleLog{})
	if res.Error != nil {
		return fmt.Errorf("删除BattleLog %s 失败: %w", objectID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LatestSent 对每个接收者返回sender发给他的最新一条记录，没有记录的接收者被跳过
func (s *Service) LatestSent(ctx context.Context, senderID string, receiverIDs []string) ([]BattleLog, error) {
	logs := make([]BattleLog, 0, len(receiverIDs))
	for _, receiverID := range receiverIDs {
		var row BattleLog
		err := s.db.WithContext(ctx).
			Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
			Order("created_at DESC").
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("查询 %s 发给 %s 的最新对战失败: %w", senderID, receiverID, err)
		}
		logs = append(logs, row)
	}
	return logs, nil
}
