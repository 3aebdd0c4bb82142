package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/coupon"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/mail"
	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/SlpAus/aom-parse-server/internal/platform/config"
	"github.com/SlpAus/aom-parse-server/internal/platform/database"
	"github.com/SlpAus/aom-parse-server/internal/platform/logger"
	"github.com/SlpAus/aom-parse-server/internal/platform/startup"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"go.uber.org/zap"
)

const usage = `用法: admin <命令> [参数]

  init                                   创建所有数据表
  add-notice <image_url>                 添加一条公告
  clear-notices                          清空公告
  add-coupon                             添加默认兑换码 WELCOME2024
  list-users                             列出所有用户
  user-info <id>                         查看用户的数值和存档
  set-ruby|set-gem|set-moecrystal|set-fp <id> <n>
  add-ruby|add-gem|add-moecrystal|add-fp <id> <n>
  set-gold|add-gold <id> <n>             修改存档中的金币
  send-mail <id> <type> <amount> [title] [msg]
  send-mail-all <type> <amount> [title] [msg]
  list-mail <id>                         查看用户的邮件
  clear-mail <id>                        清空用户的邮件

邮件类型: `

// currencyNames 是各项数值的显示名
var currencyNames = map[summary.Currency]string{
	summary.CurrencyRuby:        "萌魂 (Ruby)",
	summary.CurrencyGem:         "钻石 (Gem)",
	summary.CurrencyMoecrystal:  "梦水晶 (Moecrystal)",
	summary.CurrencyFriendPoint: "好友点 (FriendPoint)",
}

type tool struct {
	accounts  *account.Service
	summaries *summary.Service
	saves     *gamedata.Service
	notices   *notice.Service
	coupons   *coupon.Service
	mail      *mail.Service
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage + strings.Join(mail.Types, ", ") + "\n")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Server.Mode)
	if err != nil {
		fmt.Printf("创建日志器失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// 管理工具直接连接数据库，不使用会话缓存
	if err := database.InitDB(cfg.Database); err != nil {
		log.Fatal("数据库初始化失败", zap.Error(err))
	}
	defer func() { _ = database.Close() }()
	if err := startup.InitializeApplication(database.DB); err != nil {
		log.Fatal("数据表迁移失败", zap.Error(err))
	}

	accounts := account.NewService(database.DB, nil, cfg.Parse.SessionTTL)
	t := &tool{
		accounts:  accounts,
		summaries: summary.NewService(database.DB, accounts),
		saves:     gamedata.NewService(database.DB, accounts),
		notices:   notice.NewService(database.DB),
		coupons:   coupon.NewService(database.DB),
		mail:      mail.NewService(database.DB, accounts),
	}

	if err := t.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("错误: %v\n", err)
		os.Exit(1)
	}
}

func (t *tool) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "init":
		// 迁移已在启动时完成
		fmt.Println("Database tables created.")
		return nil
	case "add-notice":
		if len(args) < 1 {
			return fmt.Errorf("用法: add-notice <image_url>")
		}
		n, err := t.notices.Add(ctx, notice.AddInput{ImageURL: args[0], Order: 1, Text: notice.WelcomeText})
		if err != nil {
			return err
		}
		fmt.Printf("Added notice %s\n", n.ObjectID)
		return nil
	case "clear-notices":
		count, err := t.notices.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d notices.\n", count)
		return nil
	case "add-coupon":
		c, err := t.coupons.Create(ctx, coupon.CreateInput{
			Code:           "WELCOME2024",
			Relics:         100,
			Gems:           500,
			MaxRedemptions: coupon.Unlimited,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Added coupon %s\n", c.Code)
		return nil
	case "list-users":
		return t.listUsers(ctx)
	case "user-info":
		if len(args) < 1 {
			return fmt.Errorf("用法: user-info <id>")
		}
		return t.userInfo(ctx, args[0])
	case "set-gold", "add-gold":
		return t.gold(ctx, cmd, args)
	case "send-mail":
		if len(args) < 3 {
			return fmt.Errorf("用法: send-mail <id> <type> <amount> [title] [msg]")
		}
		d, err := t.mail.Send(ctx, args[0], mailInput(args[1:]))
		if err != nil {
			return err
		}
		fmt.Printf("Mail %s sent to %s.\n", d.ObjectID, args[0])
		return nil
	case "send-mail-all":
		if len(args) < 2 {
			return fmt.Errorf("用法: send-mail-all <type> <amount> [title] [msg]")
		}
		sent, total, err := t.mail.SendToAll(ctx, mailInput(args))
		if err != nil {
			return err
		}
		fmt.Printf("Mail sent to %d/%d users.\n", sent, total)
		return nil
	case "list-mail":
		if len(args) < 1 {
			return fmt.Errorf("用法: list-mail <id>")
		}
		return t.listMail(ctx, args[0])
	case "clear-mail":
		if len(args) < 1 {
			return fmt.Errorf("用法: clear-mail <id>")
		}
		count, err := t.mail.Clear(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Cleared %d mails for user %s.\n", count, args[0])
		return nil
	}

	if op, name, ok := strings.Cut(cmd, "-"); ok && (op == "set" || op == "add") {
		if c := summary.Currency(name); currencyNames[c] != "" {
			return t.currency(ctx, op, c, args)
		}
	}
	return fmt.Errorf("未知命令 %q", cmd)
}

func (t *tool) listUsers(ctx context.Context) error {
	users, err := t.accounts.ListUsers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%-12s %-32s %s\n", "objectId", "username", "createdAt")
	for _, u := range users {
		fmt.Printf("%-12s %-32s %s\n", u.ObjectID, u.Username, u.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("共 %d 个用户\n", len(users))
	return nil
}

func (t *tool) userInfo(ctx context.Context, userID string) error {
	u, err := t.accounts.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("用户 %s 不存在: %w", userID, err)
	}
	fmt.Printf("User: %s (%s)\n", u.Username, u.ObjectID)

	if s, err := t.summaries.GetByUser(ctx, userID); err == nil {
		fmt.Printf("  %s: %d\n", currencyNames[summary.CurrencyRuby], s.Ruby)
		fmt.Printf("  %s: %d\n", currencyNames[summary.CurrencyGem], s.Gem)
		fmt.Printf("  %s: %d\n", currencyNames[summary.CurrencyMoecrystal], s.Moecrystal)
		fmt.Printf("  %s: %d\n", currencyNames[summary.CurrencyFriendPoint], s.FriendPoint)
		fmt.Printf("  好友上限: %d\n", s.FriendLimit)
	} else {
		fmt.Println("  (没有UserSummary)")
	}

	p, err := t.saves.ProgressOf(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("  金币 (Golds): %d\n", p.Golds)
	fmt.Printf("  关卡: %v  波次: %v\n", orDash(p.Stage), orDash(p.Wave))
	return nil
}

func (t *tool) currency(ctx context.Context, op string, c summary.Currency, args []string) error {
	userID, n, err := userAndNumber(args)
	if err != nil {
		return err
	}
	before := 0
	if s, err := t.summaries.GetByUser(ctx, userID); err == nil {
		before = currencyValue(s, c)
	}

	var after summary.UserSummary
	if op == "set" {
		after, err = t.summaries.SetCurrency(ctx, userID, c, int(n))
	} else {
		after, err = t.summaries.AddCurrency(ctx, userID, c, int(n))
	}
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s for user %s\n  %d -> %d\n", currencyNames[c], userID, before, currencyValue(after, c))
	return nil
}

func (t *tool) gold(ctx context.Context, cmd string, args []string) error {
	userID, n, err := userAndNumber(args)
	if err != nil {
		return err
	}
	before, err := t.saves.ProgressOf(ctx, userID)
	if err != nil {
		return err
	}

	var golds int64
	if cmd == "set-gold" {
		golds, err = t.saves.SetGold(ctx, userID, n)
	} else {
		golds, err = t.saves.AddGold(ctx, userID, n)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Updated 金币 (Golds) for user %s\n  %d -> %d\n", userID, before.Golds, golds)
	fmt.Println("注意: 金币同时存储在客户端本地，需要用户从云端加载存档才能生效")
	return nil
}

func (t *tool) listMail(ctx context.Context, userID string) error {
	rows, err := t.mail.List(ctx, userID)
	if err != nil {
		return err
	}
	for _, d := range rows {
		fmt.Printf("%s  %-24s %-10s %s  %s\n", d.ObjectID, d.Type, d.Value, d.Title, d.Msg)
	}
	fmt.Printf("共 %d 封邮件\n", len(rows))
	return nil
}

// mailInput 按 <type> <amount> [title] [msg] 的顺序解析参数
func mailInput(args []string) mail.SendInput {
	in := mail.SendInput{Type: args[0], Amount: args[1]}
	if len(args) > 2 {
		in.Title = args[2]
	}
	if len(args) > 3 {
		in.Msg = args[3]
	}
	return in
}

func userAndNumber(args []string) (string, int64, error) {
	if len(args) < 2 {
		return "", 0, fmt.Errorf("需要参数 <id> <n>")
	}
	n, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%q 不是整数", args[1])
	}
	return args[0], n, nil
}

func currencyValue(s summary.UserSummary, c summary.Currency) int {
	switch c {
	case summary.CurrencyRuby:
		return s.Ruby
	case summary.CurrencyGem:
		return s.Gem
	case summary.CurrencyMoecrystal:
		return s.Moecrystal
	case summary.CurrencyFriendPoint:
		return s.FriendPoint
	}
	return 0
}

func orDash(v any) any {
	if v == nil {
		return "-"
	}
	return v
}
