package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ==================== 提交防重中间件 ====================

// SubmitGuard 同一向导同一时间只允许一个提交请求
// 服务层还有持久化的 submitting 状态，这里在进程内提前拒绝重复点击
//
// 使用示例:
//
//	wizards.POST("/:id/submit", middleware.SubmitGuard(nil), ctl.Submit)
func SubmitGuard(limiter *InFlightLimiter) gin.HandlerFunc {
	if limiter == nil {
		limiter = GetInFlightLimiter()
	}

	return func(c *gin.Context) {
		key := "wizard:" + c.Param("id") + ":submit"

		release, ok := limiter.TryAcquire(key)
		if !ok {
			c.JSON(http.StatusConflict, gin.H{
				"code":    409,
				"message": "Envio já em andamento",
			})
			c.Abort()
			return
		}
		defer release()

		c.Next()
	}
}
