package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/middleware"
	"storefront/internal/service"
)

// CartController 购物车控制器
type CartController struct {
	cartService *service.CartService
}

func NewCartController(cartService *service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// Ensure 确保当前用户有购物车
// @Summary 创建或获取购物车ID
// @Tags ShoppingCart
// @Success 200 {object} map[string]string
// @Router /api/shopping-cart [post]
func (ctrl *CartController) Ensure(c *gin.Context) {
	id, err := ctrl.cartService.Ensure(c.Request.Context(), middleware.GetSubject(c), middleware.GetAccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cartId": id})
}

// Get 刷新购物车内容，同一用户只有最后一次请求生效
// @Summary 获取购物车
// @Tags ShoppingCart
// @Success 200 {object} dto.ShoppingCart
// @Failure 409 {object} map[string]interface{}
// @Router /api/shopping-cart [get]
func (ctrl *CartController) Get(c *gin.Context) {
	cart, err := ctrl.cartService.Refresh(c.Request.Context(), middleware.GetSubject(c), middleware.GetAccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cart)
}

// AddProduct 加入商品
// @Summary 加入商品
// @Tags ShoppingCart
// @Param productId path string true "商品ID"
// @Success 200 {object} dto.ShoppingCart
// @Router /api/shopping-cart/products/{productId} [put]
func (ctrl *CartController) AddProduct(c *gin.Context) {
	cart, err := ctrl.cartService.AddProduct(c.Request.Context(), middleware.GetSubject(c), middleware.GetAccessToken(c), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cart)
}

// Reset 丢弃当前购物车并新建
// @Summary 重置购物车
// @Tags ShoppingCart
// @Success 200 {object} map[string]string
// @Router /api/shopping-cart [delete]
func (ctrl *CartController) Reset(c *gin.Context) {
	id, err := ctrl.cartService.Reset(c.Request.Context(), middleware.GetSubject(c), middleware.GetAccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cartId": id})
}
