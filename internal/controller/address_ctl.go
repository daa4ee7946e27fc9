package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/api/dto"
	"storefront/internal/middleware"
	"storefront/internal/service"
)

// AddressController 地址表单控制器
type AddressController struct {
	addressService *service.AddressService
}

func NewAddressController(addressService *service.AddressService) *AddressController {
	return &AddressController{addressService: addressService}
}

// ChangeZipCode 邮编输入，满 8 位自动填充
// @Summary 邮编输入
// @Tags Address
// @Accept json
// @Param body body dto.ZipCodeRequest true "邮编"
// @Success 200 {object} dto.ZipCodeResponse
// @Router /api/addresses/zip-code [post]
func (ctrl *AddressController) ChangeZipCode(c *gin.Context) {
	var req dto.ZipCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	respondOK(c, http.StatusOK, ctrl.addressService.ChangeZipCode(c.Request.Context(), req.ZipCode))
}

// Create 新增地址
// @Summary 新增地址
// @Tags Address
// @Accept json
// @Param body body dto.CreateAddressRequest true "地址"
// @Success 201
// @Failure 422 {object} map[string]interface{}
// @Router /api/addresses [post]
func (ctrl *AddressController) Create(c *gin.Context) {
	var req dto.CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := ctrl.addressService.Create(c.Request.Context(), middleware.GetAccessToken(c), &req); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, nil)
}
