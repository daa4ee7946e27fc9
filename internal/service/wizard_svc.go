package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/wizard"
)

// ==================== 外部服务依赖 ====================

// CategorySource 远程分类列表
type CategorySource interface {
	ListCategories(ctx context.Context) ([]wizard.Category, error)
}

// ListingPublisher 远程商品创建
type ListingPublisher interface {
	CreateListing(ctx context.Context, token string, sub *wizard.Submission, files []ListingFile) error
}

// PictureStorage 图片暂存
type PictureStorage interface {
	Stage(ctx context.Context, prefix, filename, contentType string, data []byte) (wizard.Picture, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ==================== 请求/结果 ====================

// PictureUpload 一个上传的图片文件
type PictureUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// PictureResult 图片暂存结果
type PictureResult struct {
	Added    []wizard.Picture
	Pictures []wizard.Picture
	Skipped  []string
}

// FieldResult 字段输入结果
type FieldResult struct {
	Field           wizard.FieldView
	ContinueEnabled bool
}

// SubmitResult 提交成功
type SubmitResult struct {
	Notifications []string
	Redirect      string
}

// 只接受的图片类型
var acceptedPictureTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// ==================== 服务实现 ====================

// WizardService 上架向导服务
// 每个向导同一时间只处理一个请求，按 PublicID 加锁
type WizardService struct {
	repo        repository.WizardRepository
	categories  CategorySource
	publisher   ListingPublisher
	storage     PictureStorage
	maxPictures int

	locks sync.Map // publicID -> *sync.Mutex
	now   func() time.Time
}

// NewWizardService 创建向导服务
func NewWizardService(
	repo repository.WizardRepository,
	categories CategorySource,
	publisher ListingPublisher,
	storage PictureStorage,
	maxPictures int,
) *WizardService {
	return &WizardService{
		repo:        repo,
		categories:  categories,
		publisher:   publisher,
		storage:     storage,
		maxPictures: maxPictures,
		now:         time.Now,
	}
}

func (s *WizardService) lock(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *WizardService) forget(id string) {
	s.locks.Delete(id)
}

// load 读取并校验归属
func (s *WizardService) load(ctx context.Context, subject, id string) (*model.ListingWizard, error) {
	m, err := s.repo.GetByPublicID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWizardNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.OwnerSubject != subject {
		return nil, ErrForbidden
	}
	if !m.IsOpen() {
		return nil, ErrWizardClosed
	}
	return m, nil
}

// withWizard 加锁执行一次修改，无论 fn 是否出错都回写状态
// 字段校验失败时错误信息也要落库，供下次渲染
func (s *WizardService) withWizard(ctx context.Context, subject, id string, fn func(w *wizard.Wizard) error) (*wizard.Wizard, error) {
	unlock := s.lock(id)
	defer unlock()

	m, err := s.load(ctx, subject, id)
	if err != nil {
		return nil, err
	}
	if m.Status == model.WizardStatusSubmitting {
		return nil, wizard.ErrSubmissionPending
	}

	w := m.Wizard()
	fnErr := fn(w)

	m.Apply(w)
	m.LastActiveAt = s.now()
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	return w, fnErr
}

// ==================== 生命周期 ====================

// Create 进入流程
func (s *WizardService) Create(ctx context.Context, subject string) (string, *wizard.Wizard, error) {
	w := wizard.New()
	m := &model.ListingWizard{
		PublicID:     uuid.New().String(),
		OwnerSubject: subject,
		Status:       model.WizardStatusActive,
		LastActiveAt: s.now(),
	}
	m.Apply(w)
	if err := s.repo.Create(ctx, m); err != nil {
		return "", nil, err
	}
	zap.L().Info("[Wizard] 创建上架向导", zap.String("wizard_id", m.PublicID), zap.String("subject", subject))
	return m.PublicID, w, nil
}

// Get 渲染当前状态；step 非 nil 时先从地址栏恢复位置
// 提交进行中时忽略位置参数
func (s *WizardService) Get(ctx context.Context, subject, id string, step *string) (*wizard.Wizard, error) {
	if step != nil {
		w, err := s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
			w.Restore(*step)
			return nil
		})
		if !errors.Is(err, wizard.ErrSubmissionPending) {
			return w, err
		}
	}

	m, err := s.load(ctx, subject, id)
	if err != nil {
		return nil, err
	}
	return m.Wizard(), nil
}

// Cancel 离开流程，删除暂存图片
func (s *WizardService) Cancel(ctx context.Context, subject, id string) error {
	unlock := s.lock(id)
	defer unlock()

	m, err := s.load(ctx, subject, id)
	if err != nil {
		return err
	}
	if m.Status == model.WizardStatusSubmitting {
		return wizard.ErrSubmissionPending
	}
	if err := s.discard(ctx, m, model.WizardStatusCancelled); err != nil {
		return err
	}
	s.forget(id)
	return nil
}

// discard 写入终态、删除暂存图片并软删除
func (s *WizardService) discard(ctx context.Context, m *model.ListingWizard, status string) error {
	keys := m.Wizard().StorageKeys()

	if err := s.repo.UpdateFields(ctx, m.ID, map[string]interface{}{"status": status}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m.ID); err != nil {
		return err
	}
	s.deletePictures(ctx, m.PublicID, keys)
	return nil
}

func (s *WizardService) deletePictures(ctx context.Context, id string, keys []string) {
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			zap.L().Warn("[Wizard] 删除暂存图片失败",
				zap.String("wizard_id", id),
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

// ==================== 导航 ====================

func (s *WizardService) Next(ctx context.Context, subject, id string) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		w.NextStep()
		return nil
	})
}

func (s *WizardService) Prev(ctx context.Context, subject, id string) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		w.PrevStep()
		return nil
	})
}

func (s *WizardService) SetStep(ctx context.Context, subject, id string, n int) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		w.SetStep(n)
		return nil
	})
}

func (s *WizardService) Reset(ctx context.Context, subject, id string) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		w.Reset()
		return nil
	})
}

// Continue 校验当前步骤后前进
func (s *WizardService) Continue(ctx context.Context, subject, id string) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		return w.Continue()
	})
}

// ==================== 字段 ====================

// ChangeField 字段输入
func (s *WizardService) ChangeField(ctx context.Context, subject, id, name, value string) (*FieldResult, error) {
	var result FieldResult
	_, err := s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		view, err := w.ChangeField(name, value)
		if err != nil {
			return err
		}
		result = FieldResult{Field: view, ContinueEnabled: w.ContinueEnabled(w.Active())}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Select 单选步骤选择
func (s *WizardService) Select(ctx context.Context, subject, id string, step wizard.StepID, value string) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		return w.Select(step, value)
	})
}

// ==================== 分类 ====================

// Categories 按关键词过滤分类，首次访问时从远程拉取并缓存
// 拉取失败只记日志并返回空列表，下次再试
func (s *WizardService) Categories(ctx context.Context, subject, id, query string) ([]wizard.Category, error) {
	var cats []wizard.Category
	_, err := s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		if !w.HasCategories() {
			list, err := s.categories.ListCategories(ctx)
			if err != nil {
				zap.L().Warn("[Wizard] 获取分类失败", zap.String("wizard_id", id), zap.Error(err))
				cats = []wizard.Category{}
				return nil
			}
			w.SetCategories(list)
		}
		cats = w.FilterCategories(query)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// ==================== 图片 ====================

// AddPictures 暂存新图片，同名文件（已有或同批重复）和不支持的类型被跳过
func (s *WizardService) AddPictures(ctx context.Context, subject, id string, files []PictureUpload) (*PictureResult, error) {
	result := &PictureResult{}
	_, err := s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		if w.Active() != wizard.StepPictures {
			return wizard.ErrFieldNotOnStep
		}

		names := make([]string, 0, len(files))
		byName := make(map[string]PictureUpload, len(files))
		for _, f := range files {
			if !acceptedPictureTypes[http.DetectContentType(f.Data)] {
				result.Skipped = append(result.Skipped, f.Name)
				continue
			}
			if _, ok := byName[f.Name]; !ok {
				byName[f.Name] = f
			}
			names = append(names, f.Name)
		}

		fresh := w.FilterNewPictures(names)
		for _, name := range names {
			if !contains(fresh, name) && !contains(result.Skipped, name) {
				result.Skipped = append(result.Skipped, name)
			}
		}
		if s.maxPictures > 0 && len(w.Record().Pictures)+len(fresh) > s.maxPictures {
			return ErrTooManyPictures
		}

		staged := make([]wizard.Picture, 0, len(fresh))
		for _, name := range fresh {
			f := byName[name]
			pic, err := s.storage.Stage(ctx, "wizards/"+id, f.Name, f.ContentType, f.Data)
			if err != nil {
				for _, p := range staged {
					_ = s.storage.Delete(ctx, p.StorageKey)
				}
				return err
			}
			staged = append(staged, pic)
		}

		added, err := w.AddPictures(staged)
		if err != nil {
			return err
		}
		result.Added = added
		result.Pictures = w.Record().Pictures
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// RemovePicture 移除图片并删除暂存内容
func (s *WizardService) RemovePicture(ctx context.Context, subject, id, name string) (*wizard.Wizard, error) {
	var removed wizard.Picture
	w, err := s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		p, err := w.RemovePicture(name)
		removed = p
		return err
	})
	if err != nil {
		return nil, err
	}
	if removed.StorageKey != "" {
		s.deletePictures(ctx, id, []string{removed.StorageKey})
	}
	return w, nil
}

// ==================== 复核 ====================

// Review 复核摘要，只读
func (s *WizardService) Review(ctx context.Context, subject, id string) ([]wizard.ReviewLine, error) {
	m, err := s.load(ctx, subject, id)
	if err != nil {
		return nil, err
	}
	return m.Wizard().Review(), nil
}

// JumpToEdit 从复核页跳到对应步骤
func (s *WizardService) JumpToEdit(ctx context.Context, subject, id string, group wizard.ReviewGroup) (*wizard.Wizard, error) {
	return s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		return w.JumpToEdit(group)
	})
}

// ==================== 提交 ====================

// Submit 提交闸门
// 1. 加锁校验并标记 submitting；2. 释放锁调用远程；3. 再加锁写回结果
// 整表校验失败返回 *form.ValidationErrors，远程失败返回 *SubmitError，两者都停留在复核页
func (s *WizardService) Submit(ctx context.Context, subject, token, id string) (*SubmitResult, error) {
	var sub *wizard.Submission
	if _, err := s.withWizard(ctx, subject, id, func(w *wizard.Wizard) error {
		var err error
		sub, err = w.BeginSubmit()
		return err
	}); err != nil {
		return nil, err
	}

	zap.L().Info("[Wizard] 开始提交商品",
		zap.String("wizard_id", id),
		zap.Int("pictures", len(sub.Pictures)))
	submitErr := s.publish(ctx, token, sub)

	unlock := s.lock(id)
	defer unlock()

	// 调用方已断开时仍需写回结果
	saveCtx := context.WithoutCancel(ctx)
	m, err := s.repo.GetByPublicID(saveCtx, id)
	if err != nil {
		return nil, err
	}
	w := m.Wizard()
	w.FinishSubmit()
	m.Apply(w)
	m.LastActiveAt = s.now()

	if submitErr != nil {
		zap.L().Error("[Wizard] 商品提交失败", zap.String("wizard_id", id), zap.Error(submitErr))
		m.LastError = truncateError(submitErr.Error())
		if err := s.repo.Save(saveCtx, m); err != nil {
			return nil, err
		}
		return nil, submitErr
	}

	now := s.now()
	m.Status = model.WizardStatusSubmitted
	m.SubmittedAt = &now
	m.LastError = ""
	if err := s.repo.Save(saveCtx, m); err != nil {
		return nil, err
	}
	if err := s.repo.Delete(saveCtx, m.ID); err != nil {
		zap.L().Warn("[Wizard] 删除已提交向导失败", zap.String("wizard_id", id), zap.Error(err))
	}
	s.deletePictures(saveCtx, id, w.StorageKeys())
	s.forget(id)

	zap.L().Info("[Wizard] 商品提交成功", zap.String("wizard_id", id))
	return &SubmitResult{
		Notifications: []string{SuccessSubmitMessage},
		Redirect:      "/",
	}, nil
}

// publish 打开暂存图片并调用远程
func (s *WizardService) publish(ctx context.Context, token string, sub *wizard.Submission) error {
	files := make([]ListingFile, 0, len(sub.Pictures))
	defer func() {
		for _, f := range files {
			if c, ok := f.Reader.(io.Closer); ok {
				_ = c.Close()
			}
		}
	}()

	for _, p := range sub.Pictures {
		rc, err := s.storage.Open(ctx, p.StorageKey)
		if err != nil {
			return genericSubmitError(0, err)
		}
		files = append(files, ListingFile{Name: p.Name, ContentType: p.ContentType, Reader: rc})
	}
	return s.publisher.CreateListing(ctx, token, sub, files)
}

func truncateError(msg string) string {
	const max = 1024
	if len(msg) > max {
		return msg[:max]
	}
	return msg
}

// ==================== 过期清理 ====================

// CleanupAbandoned 删除 before 之前不再活动的向导及其暂存图片，返回删除数量
func (s *WizardService) CleanupAbandoned(ctx context.Context, before time.Time, limit int) (int, error) {
	list, err := s.repo.FindAbandoned(ctx, before, limit)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, stale := range list {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if s.cleanupOne(ctx, stale.PublicID, before) {
			removed++
		}
	}
	return removed, nil
}

// cleanupOne 加锁后重新确认仍然过期
func (s *WizardService) cleanupOne(ctx context.Context, id string, before time.Time) bool {
	unlock := s.lock(id)
	defer unlock()

	m, err := s.repo.GetByPublicID(ctx, id)
	if err != nil || !m.IsOpen() || !m.LastActiveAt.Before(before) {
		return false
	}
	if err := s.discard(ctx, m, model.WizardStatusCancelled); err != nil {
		zap.L().Error("[Wizard] 清理过期向导失败", zap.String("wizard_id", id), zap.Error(err))
		return false
	}
	s.forget(id)
	return true
}
