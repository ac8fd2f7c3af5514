package router

import (
	"github.com/blues/fundraiser/internal/config"
	"github.com/blues/fundraiser/internal/handler"
	"github.com/blues/fundraiser/internal/runtime"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, rt *runtime.Runtime, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":   "ok",
			"service":  "fundraiser-service",
			"program":  rt.ProgramID().String(),
			"accounts": rt.Bank().Len(),
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		txHandler := handler.NewTransactionHandler(rt)
		v1.POST("/transactions", txHandler.SubmitTransaction)
		v1.GET("/accounts/:address", txHandler.GetAccount)

		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(db, rt.Clock())
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/stats", campaignHandler.GetAllCampaignStats)
			campaigns.GET("/:address", campaignHandler.GetCampaign)
			campaigns.GET("/:address/contributions", campaignHandler.GetContributions)
			campaigns.GET("/:address/refunds", campaignHandler.GetRefunds)
			campaigns.GET("/:address/settlement", campaignHandler.GetSettlement)
			campaigns.GET("/:address/stats", campaignHandler.GetCampaignStats)
		}
		v1.GET("/contributors/:address/contributions", campaignHandler.GetContributorRecords)
		v1.GET("/instructions", campaignHandler.GetInstructions)

		if cfg.Server.Mode == gin.DebugMode {
			faucetHandler := handler.NewFaucetHandler(rt)
			v1.POST("/faucet/airdrop", faucetHandler.Airdrop)
			v1.POST("/faucet/mints", faucetHandler.CreateMint)
			v1.POST("/faucet/mint", faucetHandler.MintTo)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
