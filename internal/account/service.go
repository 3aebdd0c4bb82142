package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/SlpAus/aom-parse-server/pkg/token"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingCredentials = errors.New("缺少用户名或密码")
	ErrDuplicateUsername  = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrAlreadyLinked      = errors.New("外部账户已绑定到其他用户")
	ErrInvalidSession     = errors.New("会话令牌无效或已过期")
	ErrUserNotFound       = errors.New("用户不存在")
)

// Service 负责账户、密码和会话
type Service struct {
	db    *gorm.DB
	cache *SessionCache
	ttl   time.Duration
	now   func() time.Time
}

// NewService 创建服务。cache可以为nil，ttl是新会话的固定有效期。
func NewService(db *gorm.DB, cache *SessionCache, ttl time.Duration) *Service {
	return &Service{
		db:    db,
		cache: cache,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SignupInput 是注册所需的字段
type SignupInput struct {
	Username     string
	Password     string
	Email        *string
	GoogleUserID *string
}

// CreateUser 在一个事务中创建用户、初始UserSummary和会话
func (s *Service) CreateUser(ctx context.Context, in SignupInput) (User, string, error) {
	if in.Username == "" || in.Password == "" {
		return User{}, "", ErrMissingCredentials
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return User{}, "", fmt.Errorf("无法计算密码摘要: %w", err)
	}

	var user User
	var sessionToken string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&User{}).Where("username = ?", in.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		if in.GoogleUserID != nil {
			if err := tx.Model(&User{}).Where("google_user_id = ?", *in.GoogleUserID).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAlreadyLinked
			}
		}

		user = User{
			Username:     in.Username,
			PasswordHash: hash,
			Email:        in.Email,
			GoogleUserID: in.GoogleUserID,
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateUsername
			}
			return err
		}
		if err := summary.CreateInitial(tx, user.ObjectID); err != nil {
			return err
		}
		sess, err := s.issueSession(tx, user.ObjectID)
		if err != nil {
			return err
		}
		sessionToken = sess.SessionToken
		return nil
	})
	if err != nil {
		return User{}, "", err
	}

	zap.L().Info("新用户注册", zap.String("userId", user.ObjectID), zap.String("username", user.Username))
	return user, sessionToken, nil
}

// Login 以用户名或邮箱登录，成功后追加一个新会话，不影响已有会话
func (s *Service) Login(ctx context.Context, identifier, password string) (User, string, error) {
	if identifier == "" || password == "" {
		return User{}, "", ErrMissingCredentials
	}
	user, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return User{}, "", ErrInvalidCredentials
	}

	if isLegacyHash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ObjectID, password)
	}

	sess, err := s.issueSession(s.db.WithContext(ctx), user.ObjectID)
	if err != nil {
		return User{}, "", err
	}
	return user, sess.SessionToken, nil
}

// UserBySessionToken 解析会话令牌。令牌未知或已过期时返回 ErrInvalidSession，
// 过期的会话会在这次检查中被删除。
func (s *Service) UserBySessionToken(ctx context.Context, sessionToken string) (User, error) {
	if sessionToken == "" {
		return User{}, ErrInvalidSession
	}
	now := s.now()

	cached, hit := s.cache.get(ctx, sessionToken)
	if !hit {
		var sess Session
		err := s.db.WithContext(ctx).Where("session_token = ?", sessionToken).First(&sess).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrInvalidSession
		}
		if err != nil {
			return User{}, fmt.Errorf("查询会话失败: %w", err)
		}
		cached = cachedSession{UserID: sess.UserID, ExpiresAt: sess.ExpiresAt}
		s.cache.put(ctx, sess, now)
	}

	if cached.ExpiresAt != nil && !cached.ExpiresAt.UTC().After(now) {
		if err := s.Logout(ctx, sessionToken); err != nil {
			return User{}, err
		}
		zap.L().Info("会话已过期并被删除", zap.String("userId", cached.UserID))
		return User{}, ErrInvalidSession
	}

	user, err := s.Get(ctx, cached.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrInvalidSession
	}
	return user, err
}

// Logout 删除会话，令牌未知时什么也不做
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	if err := s.db.WithContext(ctx).Where("session_token = ?", sessionToken).Delete(&Session{}).Error; err != nil {
		return fmt.Errorf("删除会话失败: %w", err)
	}
	s.cache.del(ctx, sessionToken)
	return nil
}

// ClearUserSessions 校验密码后删除该用户的全部会话。用户不存在时视为无事可做。
func (s *Service) ClearUserSessions(ctx context.Context, identifier, password string) error {
	user, err := s.findByIdentifier(ctx, identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidCredentials
	}

	var tokens []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Session{}).Where("user_id = ?", user.ObjectID).Pluck("session_token", &tokens).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ObjectID).Delete(&Session{}).Error
	})
	if err != nil {
		return fmt.Errorf("清除用户 %s 的会话失败: %w", user.ObjectID, err)
	}
	s.cache.del(ctx, tokens...)
	return nil
}

// LinkExternalAccount 绑定外部账户id。已绑定到其他用户时返回 ErrAlreadyLinked。
func (s *Service) LinkExternalAccount(ctx context.Context, userID, externalID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner User
		err := tx.Where("google_user_id = ?", externalID).First(&owner).Error
		if err == nil && owner.ObjectID != userID {
			return ErrAlreadyLinked
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		res := tx.Model(&User{}).Where("object_id = ?", userID).Updates(map[string]any{
			"google_user_id": externalID,
			"updated_at":     s.now(),
		})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrAlreadyLinked
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// ExchangeAuthCode 用外部授权码换取会话。授权码目前直接视为外部账户id。
func (s *Service) ExchangeAuthCode(ctx context.Context, authCode string) (string, error) {
	var user User
	err := s.db.WithContext(ctx).Where("google_user_id = ?", authCode).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	sess, err := s.issueSession(s.db.WithContext(ctx), user.ObjectID)
	if err != nil {
		return "", err
	}
	return sess.SessionToken, nil
}

func (s *Service) issueSession(tx *gorm.DB, userID string) (Session, error) {
	sessionToken, err := token.NewSessionToken()
	if err != nil {
		return Session{}, err
	}
	expiresAt := s.now().Add(s.ttl)
	sess := Session{
		SessionToken: sessionToken,
		UserID:       userID,
		ExpiresAt:    &expiresAt,
	}
	if err := tx.Create(&sess).Error; err != nil {
		return Session{}, fmt.Errorf("无法为用户 %s 创建会话: %w", userID, err)
	}
	return sess, nil
}

func (s *Service) findByIdentifier(ctx context.Context, identifier string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("username = ?", identifier).
		Or("email = ?", identifier).
		Order("created_at").
		First(&user).Error
	return user, err
}

func (s *Service) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		return
	}
	err = s.db.WithContext(ctx).Model(&User{}).Where("object_id = ?", userID).UpdateColumn("password_hash", hash).Error
	if err != nil {
		zap.L().Warn("升级旧密码摘要失败", zap.String("userId", userID), zap.Error(err))
	}
}
