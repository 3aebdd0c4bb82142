package api

import (
	"github.com/SlpAus/aom-parse-server/internal/account"
	"github.com/SlpAus/aom-parse-server/internal/battle"
	"github.com/SlpAus/aom-parse-server/internal/coupon"
	"github.com/SlpAus/aom-parse-server/internal/friend"
	"github.com/SlpAus/aom-parse-server/internal/gamedata"
	"github.com/SlpAus/aom-parse-server/internal/mail"
	"github.com/SlpAus/aom-parse-server/internal/notice"
	"github.com/SlpAus/aom-parse-server/internal/platform/config"
	"github.com/SlpAus/aom-parse-server/internal/platform/health"
	"github.com/SlpAus/aom-parse-server/internal/summary"
	"github.com/gin-gonic/gin"
)

// Services 汇总了路由需要的全部业务服务
type Services struct {
	Accounts  *account.Service
	Summaries *summary.Service
	Saves     *gamedata.Service
	Friends   *friend.Service
	Battles   *battle.Service
	Notices   *notice.Service
	Mail      *mail.Service
	Coupons   *coupon.Service
	Health    *health.Checker
}

// Handler 持有路由处理函数共用的依赖
type Handler struct {
	svc    Services
	parse  config.ParseConfig
	params map[string]any
}

// NewHandler 创建处理器。客户端参数表在这里一次性构造，之后只读。
func NewHandler(cfg *config.Config, svc Services) (*Handler, error) {
	params, err := cfg.Client.Params()
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, parse: cfg.Parse, params: params}, nil
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	p := router.Group("/parse", RequestLogger(), ValidateApplicationID(h.parse.ApplicationID), LoadSession(h.svc.Accounts))
	{
		p.GET("", h.ParseRoot)
		p.GET("/config", h.GetConfig)
		p.POST("/config", h.GetConfig)

		// 用户与登录
		users := p.Group("/users")
		{
			users.POST("", h.SignUp)
			users.GET("/me", RequireSession(), h.Me)
			users.GET("/:id", RequireSession(), h.GetUser)
			users.PUT("/:id", RequireSession(), h.UpdateUser)
		}
		p.GET("/login", h.Login)
		p.POST("/login", h.Login)
		p.POST("/logout", h.Logout)

		// 实体类
		classes := p.Group("/classes")
		{
			classes.GET("/_User", h.QueryUsers)
			classes.POST("/_User", createOrQuery(h.CreateUserObject, h.QueryUsers))
			classes.GET("/_User/:id", h.GetUserObject)
			classes.PUT("/_User/:id", h.UpdateUserObject)
			classes.POST("/_User/:id", methodOverride(map[string]gin.HandlerFunc{"PUT": h.UpdateUserObject}))

			classes.GET("/UserSummary", h.QuerySummaries)
			classes.POST("/UserSummary", createOrQuery(h.CreateSummary, h.QuerySummaries))
			classes.PUT("/UserSummary/:id", h.UpdateSummary)
			classes.POST("/UserSummary/:id", methodOverride(map[string]gin.HandlerFunc{"PUT": h.UpdateSummary}))

			classes.GET("/GameData", h.QueryGameData)
			classes.POST("/GameData", createOrQuery(h.CreateGameData, h.QueryGameData))
			classes.PUT("/GameData/:id", h.UpdateGameData)
			classes.POST("/GameData/:id", methodOverride(map[string]gin.HandlerFunc{"PUT": h.UpdateGameData}))

			classes.GET("/FriendRelation", h.QueryFriendRelations)
			classes.POST("/FriendRelation", createOrQuery(h.CreateFriendRelation, h.QueryFriendRelations))
			classes.DELETE("/FriendRelation/:id", h.DeleteFriendRelation)
			classes.POST("/FriendRelation/:id", methodOverride(map[string]gin.HandlerFunc{"DELETE": h.DeleteFriendRelation}))

			classes.GET("/BattleLog", h.QueryBattleLogs)
			classes.POST("/BattleLog", createOrQuery(h.CreateBattleLog, h.QueryBattleLogs))
			classes.PUT("/BattleLog/:id", h.UpdateBattleLog)
			classes.DELETE("/BattleLog/:id", h.DeleteBattleLog)
			classes.POST("/BattleLog/:id", methodOverride(map[string]gin.HandlerFunc{
				"PUT":    h.UpdateBattleLog,
				"DELETE": h.DeleteBattleLog,
			}))

			// Notice 和 DropBox 的POST只用于查询
			classes.GET("/Notice", h.QueryNotices)
			classes.POST("/Notice", h.QueryNotices)

			classes.GET("/DropBox", h.QueryDropBox)
			classes.POST("/DropBox", h.QueryDropBox)
			classes.DELETE("/DropBox/:id", h.DeleteDropBox)
			classes.POST("/DropBox/:id", methodOverride(map[string]gin.HandlerFunc{"DELETE": h.DeleteDropBox}))
		}

		// 云函数
		functions := p.Group("/functions")
		{
			functions.POST("/clearSessionToken", h.ClearSessionToken)
			functions.POST("/getUserSessionToken", h.GetUserSessionToken)
			functions.POST("/linkGoogleID", RequireSession(), h.LinkGoogleID)
			functions.POST("/addFriend", RequireSession(), h.AddFriend)
			functions.POST("/findLatestBattleLogPerFriend", RequireSession(), h.FindLatestBattleLogPerFriend)
		}

		p.POST("/batch", h.Batch)
	}

	// 优惠券接口使用表单编码，错误格式也与Parse不同
	api := router.Group("/api")
	{
		api.POST("/redeemCoupon", h.RedeemCoupon)

		admin := api.Group("/admin", RequireMasterKey(h.parse.MasterKey))
		{
			admin.POST("/coupons", h.CreateCoupon)
			admin.GET("/coupons", h.ListCoupons)
			admin.DELETE("/coupons/:id", h.DeleteCoupon)
		}
	}
}
