package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/controller"
	"storefront/internal/middleware"
)

// Controllers 路由需要的控制器
type Controllers struct {
	Wizard  *controller.WizardController
	Address *controller.AddressController
	Cart    *controller.CartController
}

// InitRoutes 注册所有路由
// jwtSecret 为空时只解析令牌不校验签名
func InitRoutes(r *gin.Engine, ctls *Controllers, jwtSecret string) {
	// 1. 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 2. API 路由组，全部需要令牌
	api := r.Group("/api")
	api.Use(middleware.BearerAuth(jwtSecret), middleware.AuditContext())
	{
		// 上架向导
		wizards := api.Group("/listing-wizards")
		{
			wizards.POST("", ctls.Wizard.Create)
			wizards.GET("/:id", ctls.Wizard.Get)
			wizards.DELETE("/:id", ctls.Wizard.Cancel)

			// 导航
			wizards.POST("/:id/next", ctls.Wizard.Next())
			wizards.POST("/:id/prev", ctls.Wizard.Prev())
			wizards.POST("/:id/reset", ctls.Wizard.Reset())
			wizards.PUT("/:id/step", ctls.Wizard.SetStep)
			wizards.POST("/:id/continue", ctls.Wizard.Continue)

			// 字段与选择
			wizards.PATCH("/:id/fields/:field", ctls.Wizard.ChangeField)
			wizards.GET("/:id/categories", ctls.Wizard.Categories)
			wizards.POST("/:id/category", ctls.Wizard.SelectCategory)
			wizards.POST("/:id/condition", ctls.Wizard.SelectCondition)
			wizards.POST("/:id/warranty-type", ctls.Wizard.SelectWarrantyType)

			// 图片
			wizards.POST("/:id/pictures", ctls.Wizard.AddPictures)
			wizards.DELETE("/:id/pictures/:name", ctls.Wizard.RemovePicture)

			// 复核与提交，同一向导同一时刻只允许一次提交
			wizards.GET("/:id/review", ctls.Wizard.Review)
			wizards.POST("/:id/review/:group/edit", ctls.Wizard.JumpToEdit)
			wizards.POST("/:id/submit", middleware.SubmitGuard(middleware.GetInFlightLimiter()), ctls.Wizard.Submit)
		}

		// 地址
		addresses := api.Group("/addresses")
		{
			addresses.POST("", ctls.Address.Create)
			addresses.POST("/zip-code", ctls.Address.ChangeZipCode)
		}

		// 购物车
		cart := api.Group("/shopping-cart")
		{
			cart.POST("", ctls.Cart.Ensure)
			cart.GET("", ctls.Cart.Get)
			cart.DELETE("", ctls.Cart.Reset)
			cart.PUT("/products/:productId", ctls.Cart.AddProduct)
		}
	}
}
