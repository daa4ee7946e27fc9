package controller

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/api/dto"
	"storefront/internal/form"
	"storefront/internal/middleware"
	"storefront/internal/service"
	"storefront/internal/wizard"
)

// WizardBasePath 向导资源路径，位置 = {WizardBasePath}/{id}?step=N
const WizardBasePath = "/api/listing-wizards"

// 单张图片上限
const maxPictureBytes = 10 << 20

// ==================== 控制器 ====================

// WizardController 上架向导控制器
type WizardController struct {
	wizardService *service.WizardService
}

func NewWizardController(wizardService *service.WizardService) *WizardController {
	return &WizardController{wizardService: wizardService}
}

func location(id string) string {
	return WizardBasePath + "/" + id
}

func (ctrl *WizardController) render(c *gin.Context, status int, id string, w *wizard.Wizard) {
	respondOK(c, status, dto.WizardResponse{ID: id, View: w.View(location(id))})
}

// ==================== 生命周期 ====================

// Create 进入上架流程
// @Summary 创建上架向导
// @Tags ListingWizard
// @Produce json
// @Success 201 {object} dto.WizardResponse
// @Router /api/listing-wizards [post]
func (ctrl *WizardController) Create(c *gin.Context) {
	id, w, err := ctrl.wizardService.Create(c.Request.Context(), middleware.GetSubject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", w.View(location(id)).Location)
	ctrl.render(c, http.StatusCreated, id, w)
}

// Get 渲染向导，带 step 参数时先恢复位置
// @Summary 获取向导状态
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Param step query int false "步骤"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id} [get]
func (ctrl *WizardController) Get(c *gin.Context) {
	id := c.Param("id")

	var step *string
	if raw, ok := c.GetQuery(wizard.LocationParam); ok {
		step = &raw
	}

	w, err := ctrl.wizardService.Get(c.Request.Context(), middleware.GetSubject(c), id, step)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, id, w)
}

// Cancel 离开流程
// @Summary 取消向导
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 204
// @Router /api/listing-wizards/{id} [delete]
func (ctrl *WizardController) Cancel(c *gin.Context) {
	if err := ctrl.wizardService.Cancel(c.Request.Context(), middleware.GetSubject(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ==================== 导航 ====================

type navigateFn func(svc *service.WizardService, c *gin.Context, subject, id string) (*wizard.Wizard, error)

func (ctrl *WizardController) navigate(fn navigateFn) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		w, err := fn(ctrl.wizardService, c, middleware.GetSubject(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		ctrl.render(c, http.StatusOK, id, w)
	}
}

// Next 前进一步
// @Summary 下一步
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/next [post]
func (ctrl *WizardController) Next() gin.HandlerFunc {
	return ctrl.navigate(func(svc *service.WizardService, c *gin.Context, subject, id string) (*wizard.Wizard, error) {
		return svc.Next(c.Request.Context(), subject, id)
	})
}

// Prev 后退一步
// @Summary 上一步
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/prev [post]
func (ctrl *WizardController) Prev() gin.HandlerFunc {
	return ctrl.navigate(func(svc *service.WizardService, c *gin.Context, subject, id string) (*wizard.Wizard, error) {
		return svc.Prev(c.Request.Context(), subject, id)
	})
}

// Reset 回到第一步
// @Summary 重置位置
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/reset [post]
func (ctrl *WizardController) Reset() gin.HandlerFunc {
	return ctrl.navigate(func(svc *service.WizardService, c *gin.Context, subject, id string) (*wizard.Wizard, error) {
		return svc.Reset(c.Request.Context(), subject, id)
	})
}

// SetStep 直接跳转
// @Summary 跳转到指定步骤
// @Tags ListingWizard
// @Accept json
// @Param id path string true "向导ID"
// @Param body body dto.SetStepRequest true "步骤"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/step [put]
func (ctrl *WizardController) SetStep(c *gin.Context) {
	var req dto.SetStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	id := c.Param("id")
	w, err := ctrl.wizardService.SetStep(c.Request.Context(), middleware.GetSubject(c), id, req.Step)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, id, w)
}

// Continue 校验当前步骤后前进
// 校验失败返回 422，同时带上最新状态用于展示字段错误
// @Summary 继续
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 200 {object} dto.WizardResponse
// @Failure 422 {object} map[string]interface{}
// @Router /api/listing-wizards/{id}/continue [post]
func (ctrl *WizardController) Continue(c *gin.Context) {
	id := c.Param("id")
	w, err := ctrl.wizardService.Continue(c.Request.Context(), middleware.GetSubject(c), id)

	var verrs *form.ValidationErrors
	if errors.As(err, &verrs) && w != nil {
		respondFail(c, http.StatusUnprocessableEntity, "Dados inválidos", gin.H{
			"id":            id,
			"view":          w.View(location(id)),
			"notifications": verrs.Messages(),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, id, w)
}

// ==================== 字段与选择 ====================

// ChangeField 字段输入
// @Summary 修改字段
// @Tags ListingWizard
// @Accept json
// @Param id path string true "向导ID"
// @Param field path string true "字段名"
// @Param body body dto.ChangeFieldRequest true "输入值"
// @Success 200 {object} dto.FieldChangeResponse
// @Router /api/listing-wizards/{id}/fields/{field} [patch]
func (ctrl *WizardController) ChangeField(c *gin.Context) {
	var req dto.ChangeFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	res, err := ctrl.wizardService.ChangeField(c.Request.Context(), middleware.GetSubject(c), c.Param("id"), c.Param("field"), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.FieldChangeResponse{
		Field:           res.Field,
		ContinueEnabled: res.ContinueEnabled,
	})
}

func (ctrl *WizardController) selectChoice(c *gin.Context, step wizard.StepID, value string) {
	id := c.Param("id")
	w, err := ctrl.wizardService.Select(c.Request.Context(), middleware.GetSubject(c), id, step, value)
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, id, w)
}

// SelectCategory 选择分类并前进
// @Summary 选择分类
// @Tags ListingWizard
// @Accept json
// @Param id path string true "向导ID"
// @Param body body dto.SelectCategoryRequest true "分类"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/category [post]
func (ctrl *WizardController) SelectCategory(c *gin.Context) {
	var req dto.SelectCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctrl.selectChoice(c, wizard.StepCategory, req.CategoryID)
}

// SelectCondition 选择成色并前进
// @Summary 选择成色
// @Tags ListingWizard
// @Accept json
// @Param id path string true "向导ID"
// @Param body body dto.SelectConditionRequest true "成色"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/condition [post]
func (ctrl *WizardController) SelectCondition(c *gin.Context) {
	var req dto.SelectConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctrl.selectChoice(c, wizard.StepCondition, req.Condition)
}

// SelectWarrantyType 选择保修类型，NONE 跳过时长步骤
// @Summary 选择保修类型
// @Tags ListingWizard
// @Accept json
// @Param id path string true "向导ID"
// @Param body body dto.SelectWarrantyTypeRequest true "保修类型"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/warranty-type [post]
func (ctrl *WizardController) SelectWarrantyType(c *gin.Context) {
	var req dto.SelectWarrantyTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	ctrl.selectChoice(c, wizard.StepWarrantyType, req.Type)
}

// Categories 分类搜索
// @Summary 搜索分类
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Param q query string false "关键词，空格分隔"
// @Success 200 {array} wizard.Category
// @Router /api/listing-wizards/{id}/categories [get]
func (ctrl *WizardController) Categories(c *gin.Context) {
	var q dto.CategoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, err)
		return
	}

	cats, err := ctrl.wizardService.Categories(c.Request.Context(), middleware.GetSubject(c), c.Param("id"), q.Q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cats)
}

// ==================== 图片 ====================

// AddPictures 上传图片，multipart 字段名 pictures
// @Summary 添加图片
// @Tags ListingWizard
// @Accept multipart/form-data
// @Param id path string true "向导ID"
// @Param pictures formData file true "图片"
// @Success 200 {object} dto.PicturesResponse
// @Router /api/listing-wizards/{id}/pictures [post]
func (ctrl *WizardController) AddPictures(c *gin.Context) {
	mf, err := c.MultipartForm()
	if err != nil {
		respondBadRequest(c, err)
		return
	}
	headers := mf.File["pictures"]
	if len(headers) == 0 {
		respondFail(c, http.StatusBadRequest, "Nenhuma foto enviada", nil)
		return
	}

	uploads := make([]service.PictureUpload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxPictureBytes {
			respondFail(c, http.StatusRequestEntityTooLarge, "Foto muito grande: "+fh.Filename, nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxPictureBytes+1))
		_ = f.Close()
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		uploads = append(uploads, service.PictureUpload{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := ctrl.wizardService.AddPictures(c.Request.Context(), middleware.GetSubject(c), c.Param("id"), uploads)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.PicturesResponse{
		Added:    res.Added,
		Pictures: res.Pictures,
		Skipped:  res.Skipped,
	})
}

// RemovePicture 按文件名移除图片
// @Summary 移除图片
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Param name path string true "文件名"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/pictures/{name} [delete]
func (ctrl *WizardController) RemovePicture(c *gin.Context) {
	id := c.Param("id")
	w, err := ctrl.wizardService.RemovePicture(c.Request.Context(), middleware.GetSubject(c), id, c.Param("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, id, w)
}

// ==================== 复核与提交 ====================

// Review 复核摘要
// @Summary 复核摘要
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 200 {array} wizard.ReviewLine
// @Router /api/listing-wizards/{id}/review [get]
func (ctrl *WizardController) Review(c *gin.Context) {
	lines, err := ctrl.wizardService.Review(c.Request.Context(), middleware.GetSubject(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, lines)
}

// JumpToEdit 从复核页跳转编辑
// @Summary 跳转编辑
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Param group path string true "分组: photos|title|price|description|warranty|condition|category"
// @Success 200 {object} dto.WizardResponse
// @Router /api/listing-wizards/{id}/review/{group}/edit [post]
func (ctrl *WizardController) JumpToEdit(c *gin.Context) {
	id := c.Param("id")
	w, err := ctrl.wizardService.JumpToEdit(c.Request.Context(), middleware.GetSubject(c), id, wizard.ReviewGroup(c.Param("group")))
	if err != nil {
		respondError(c, err)
		return
	}
	ctrl.render(c, http.StatusOK, id, w)
}

// Submit 提交商品
// @Summary 提交商品
// @Tags ListingWizard
// @Param id path string true "向导ID"
// @Success 200 {object} dto.SubmitResponse
// @Failure 422 {object} dto.SubmitResponse
// @Failure 409 {object} map[string]interface{}
// @Router /api/listing-wizards/{id}/submit [post]
func (ctrl *WizardController) Submit(c *gin.Context) {
	res, err := ctrl.wizardService.Submit(c.Request.Context(), middleware.GetSubject(c), middleware.GetAccessToken(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto.SubmitResponse{
		Success:       true,
		Notifications: res.Notifications,
		Redirect:      res.Redirect,
	})
}
