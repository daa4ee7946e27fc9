package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storefront/internal/form"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/wizard"
)

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}
)

func setupServiceDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	// 内存库每个连接独立，测试里有并发请求
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.ListingWizard{}, &model.CartBinding{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// ==================== Mock 实现 ====================

type mockCategories struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockCategories) ListCategories(context.Context) ([]wizard.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []wizard.Category{
		{ID: "c1", Name: "Roupas masculinas"},
		{ID: "c2", Name: "Eletrônicos"},
		{ID: "c3", Name: "Roupas femininas"},
	}, nil
}

type published struct {
	token string
	sub   *wizard.Submission
	files map[string]string
}

type mockPublisher struct {
	mu      sync.Mutex
	calls   []published
	err     error
	block   chan struct{}
	entered chan struct{}
}

func (m *mockPublisher) CreateListing(_ context.Context, token string, sub *wizard.Submission, files []ListingFile) error {
	if m.entered != nil {
		close(m.entered)
	}
	if m.block != nil {
		<-m.block
	}
	contents := make(map[string]string, len(files))
	for _, f := range files {
		data, _ := io.ReadAll(f.Reader)
		contents[f.Name] = string(data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, published{token: token, sub: sub, files: contents})
	return m.err
}

type wizardFixture struct {
	svc        *WizardService
	repo       repository.WizardRepository
	categories *mockCategories
	publisher  *mockPublisher
	storageDir string
}

func newWizardFixture(t *testing.T) *wizardFixture {
	dir := t.TempDir()
	provider, err := NewLocalStorage(&StorageConfig{BasePath: dir})
	require.NoError(t, err)

	f := &wizardFixture{
		repo:       repository.NewWizardRepository(setupServiceDB(t)),
		categories: &mockCategories{},
		publisher:  &mockPublisher{},
		storageDir: dir,
	}
	f.svc = NewWizardService(f.repo, f.categories, f.publisher, NewStorageService(provider), 3)
	return f
}

// stagedFiles 存储目录下的文件数
func (f *wizardFixture) stagedFiles(t *testing.T) int {
	count := 0
	err := filepath.Walk(f.storageDir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			count++
		}
		return err
	})
	require.NoError(t, err)
	return count
}

// fillWizard 通过服务走完整个流程，停在复核页
func fillWizard(t *testing.T, f *wizardFixture, id string) {
	t.Helper()
	ctx := context.Background()
	svc := f.svc

	_, err := svc.Continue(ctx, "user-1", id) // 1 -> 2
	require.NoError(t, err)
	_, err = svc.ChangeField(ctx, "user-1", id, wizard.FieldTitle, "Camiseta azul tamanho M")
	require.NoError(t, err)
	_, err = svc.Continue(ctx, "user-1", id) // 2 -> 3
	require.NoError(t, err)

	_, err = svc.Categories(ctx, "user-1", id, "")
	require.NoError(t, err)
	_, err = svc.Select(ctx, "user-1", id, wizard.StepCategory, "c1") // 3 -> 4
	require.NoError(t, err)
	_, err = svc.Select(ctx, "user-1", id, wizard.StepCondition, string(wizard.ConditionNew)) // 4 -> 5
	require.NoError(t, err)
	_, err = svc.Continue(ctx, "user-1", id) // 5 -> 6
	require.NoError(t, err)

	_, err = svc.AddPictures(ctx, "user-1", id, []PictureUpload{{Name: "a.jpg", ContentType: "image/jpeg", Data: jpegBytes}})
	require.NoError(t, err)
	_, err = svc.Continue(ctx, "user-1", id) // 6 -> 7
	require.NoError(t, err)

	_, err = svc.ChangeField(ctx, "user-1", id, wizard.FieldDescription, "Camiseta de algodão, nunca usada.")
	require.NoError(t, err)
	_, err = svc.Continue(ctx, "user-1", id) // 7 -> 8
	require.NoError(t, err)

	_, err = svc.ChangeField(ctx, "user-1", id, wizard.FieldPrice, "10050")
	require.NoError(t, err)
	_, err = svc.Continue(ctx, "user-1", id) // 8 -> 9
	require.NoError(t, err)

	_, err = svc.Select(ctx, "user-1", id, wizard.StepWarrantyType, string(wizard.WarrantySeller)) // 9 -> 10
	require.NoError(t, err)
	_, err = svc.ChangeField(ctx, "user-1", id, wizard.FieldWarrantyTime, "3")
	require.NoError(t, err)
	_, err = svc.Continue(ctx, "user-1", id) // 10 -> 11
	require.NoError(t, err)
	w, err := svc.Continue(ctx, "user-1", id) // 11 -> 12
	require.NoError(t, err)
	require.Equal(t, wizard.StepReview, w.Active())
}

func ptr(s string) *string { return &s }

// ==================== 生命周期 ====================

func TestWizardService_CreateAndRestore(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	id, w, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, wizard.StepDescribeHero, w.Active())

	w, err = f.svc.Get(ctx, "user-1", id, ptr("5"))
	require.NoError(t, err)
	assert.Equal(t, wizard.StepID(5), w.Active())

	// 无参数时保持上次位置
	w, err = f.svc.Get(ctx, "user-1", id, nil)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepID(5), w.Active())

	w, err = f.svc.Get(ctx, "user-1", id, ptr("99"))
	require.NoError(t, err)
	assert.Equal(t, wizard.StepDescribeHero, w.Active())
}

func TestWizardService_Ownership(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()

	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = f.svc.Next(ctx, "user-2", id)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(ctx, "user-1", "missing", nil)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestWizardService_NavigationPersists(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = f.svc.SetStep(ctx, "user-1", id, 40)
	require.NoError(t, err)
	m, err := f.repo.GetByPublicID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCount, m.ActiveStep)

	w, err := f.svc.Prev(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepID(11), w.Active())

	w, err = f.svc.Reset(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepDescribeHero, w.Active())
}

// ==================== 字段 ====================

func TestWizardService_ChangeFieldAndContinue(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	_, err = f.svc.SetStep(ctx, "user-1", id, int(wizard.StepTitle))
	require.NoError(t, err)

	res, err := f.svc.ChangeField(ctx, "user-1", id, wizard.FieldTitle, "ab")
	require.NoError(t, err)
	assert.False(t, res.ContinueEnabled)
	assert.NotEmpty(t, res.Field.Errors)

	w, err := f.svc.Continue(ctx, "user-1", id)
	var verrs *form.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, wizard.StepTitle, w.Active())

	_, err = f.svc.ChangeField(ctx, "user-1", id, wizard.FieldPrice, "100")
	assert.ErrorIs(t, err, wizard.ErrFieldNotOnStep)

	res, err = f.svc.ChangeField(ctx, "user-1", id, wizard.FieldTitle, "Bicicleta aro 29")
	require.NoError(t, err)
	assert.True(t, res.ContinueEnabled)

	w, err = f.svc.Continue(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCategory, w.Active())
}

// ==================== 分类 ====================

func TestWizardService_CategoriesFetchedOnce(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)

	cats, err := f.svc.Categories(ctx, "user-1", id, "roupas")
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	cats, err = f.svc.Categories(ctx, "user-1", id, "ELETRÔNICOS femininas")
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	assert.Equal(t, 1, f.categories.calls)
}

func TestWizardService_CategoriesErrorDegrades(t *testing.T) {
	f := newWizardFixture(t)
	f.categories.err = errors.New("connection refused")
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)

	cats, err := f.svc.Categories(ctx, "user-1", id, "")
	require.NoError(t, err)
	assert.Empty(t, cats)

	f.categories.err = nil
	cats, err = f.svc.Categories(ctx, "user-1", id, "")
	require.NoError(t, err)
	assert.Len(t, cats, 3)
	assert.Equal(t, 2, f.categories.calls)
}

// ==================== 图片 ====================

func TestWizardService_Pictures(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = f.svc.AddPictures(ctx, "user-1", id, []PictureUpload{{Name: "a.jpg", Data: jpegBytes}})
	assert.ErrorIs(t, err, wizard.ErrFieldNotOnStep)

	_, err = f.svc.SetStep(ctx, "user-1", id, int(wizard.StepPictures))
	require.NoError(t, err)

	res, err := f.svc.AddPictures(ctx, "user-1", id, []PictureUpload{
		{Name: "a.jpg", Data: jpegBytes},
		{Name: "a.jpg", Data: jpegBytes},
		{Name: "notes.txt", Data: []byte("hello world")},
		{Name: "b.png", Data: pngBytes},
	})
	require.NoError(t, err)
	assert.Len(t, res.Added, 2)
	assert.Len(t, res.Pictures, 2)
	assert.Equal(t, []string{"notes.txt"}, res.Skipped)
	assert.Equal(t, 2, f.stagedFiles(t))

	res, err = f.svc.AddPictures(ctx, "user-1", id, []PictureUpload{{Name: "a.jpg", Data: jpegBytes}})
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Equal(t, []string{"a.jpg"}, res.Skipped)

	_, err = f.svc.AddPictures(ctx, "user-1", id, []PictureUpload{
		{Name: "c.jpg", Data: jpegBytes},
		{Name: "d.jpg", Data: jpegBytes},
	})
	assert.ErrorIs(t, err, ErrTooManyPictures)
	assert.Equal(t, 2, f.stagedFiles(t))

	w, err := f.svc.RemovePicture(ctx, "user-1", id, "a.jpg")
	require.NoError(t, err)
	assert.Len(t, w.Record().Pictures, 1)
	assert.Equal(t, 1, f.stagedFiles(t))

	w, err = f.svc.RemovePicture(ctx, "user-1", id, "b.png")
	require.NoError(t, err)
	assert.True(t, w.View("/x").PicturePlaceholder)
	assert.Zero(t, f.stagedFiles(t))

	_, err = f.svc.RemovePicture(ctx, "user-1", id, "b.png")
	assert.ErrorIs(t, err, wizard.ErrPictureNotFound)
}

// ==================== 提交 ====================

func TestWizardService_SubmitEndToEnd(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	fillWizard(t, f, id)
	require.Equal(t, 1, f.stagedFiles(t))

	res, err := f.svc.Submit(ctx, "user-1", "tok", id)
	require.NoError(t, err)
	assert.Equal(t, []string{SuccessSubmitMessage}, res.Notifications)
	assert.Equal(t, "/", res.Redirect)

	require.Len(t, f.publisher.calls, 1)
	call := f.publisher.calls[0]
	assert.Equal(t, "tok", call.token)
	assert.Equal(t, int64(10050), call.sub.PriceInCents)
	assert.Equal(t, 3, call.sub.WarrantyDurationTime)
	assert.Equal(t, string(jpegBytes), call.files["a.jpg"])

	_, err = f.svc.Get(ctx, "user-1", id, nil)
	assert.ErrorIs(t, err, ErrWizardNotFound)
	assert.Zero(t, f.stagedFiles(t))
}

func TestWizardService_SubmitRemoteErrorsStayOnReview(t *testing.T) {
	f := newWizardFixture(t)
	f.publisher.err = &SubmitError{Status: 400, Messages: []string{"Título já existe", "Categoria inválida"}}
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	fillWizard(t, f, id)

	_, err = f.svc.Submit(ctx, "user-1", "tok", id)
	var se *SubmitError
	require.ErrorAs(t, err, &se)
	assert.Len(t, se.Messages, 2)

	w, err := f.svc.Get(ctx, "user-1", id, nil)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepReview, w.Active())
	assert.False(t, w.Submitting())
	assert.Equal(t, "Camiseta azul tamanho M", w.Record().Title)
	assert.Equal(t, 1, f.stagedFiles(t))

	m, err := f.repo.GetByPublicID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.WizardStatusActive, m.Status)
	assert.Contains(t, m.LastError, "Título já existe")

	// 不自动重试，用户可以再次提交
	f.publisher.err = nil
	_, err = f.svc.Submit(ctx, "user-1", "tok", id)
	require.NoError(t, err)
	assert.Len(t, f.publisher.calls, 2)
}

func TestWizardService_SubmitValidationSkipsRemote(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "user-1", "tok", id)
	assert.ErrorIs(t, err, wizard.ErrNotOnReview)

	_, err = f.svc.SetStep(ctx, "user-1", id, int(wizard.StepReview))
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, "user-1", "tok", id)
	var verrs *form.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.NotEmpty(t, verrs.Messages())
	assert.Empty(t, f.publisher.calls)

	m, err := f.repo.GetByPublicID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.WizardStatusActive, m.Status)
}

func TestWizardService_SubmitSingleInFlight(t *testing.T) {
	f := newWizardFixture(t)
	f.publisher.block = make(chan struct{})
	f.publisher.entered = make(chan struct{})
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	fillWizard(t, f, id)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Submit(ctx, "user-1", "tok", id)
		done <- err
	}()
	<-f.publisher.entered

	_, err = f.svc.Submit(ctx, "user-1", "tok", id)
	assert.ErrorIs(t, err, wizard.ErrSubmissionPending)
	_, err = f.svc.Prev(ctx, "user-1", id)
	assert.ErrorIs(t, err, wizard.ErrSubmissionPending)
	assert.ErrorIs(t, f.svc.Cancel(ctx, "user-1", id), wizard.ErrSubmissionPending)

	w, err := f.svc.Get(ctx, "user-1", id, ptr("3"))
	require.NoError(t, err)
	assert.True(t, w.Submitting())
	assert.Equal(t, wizard.StepReview, w.Active())

	close(f.publisher.block)
	require.NoError(t, <-done)
	assert.Len(t, f.publisher.calls, 1)
}

// ==================== 取消与清理 ====================

func TestWizardService_Cancel(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	id, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	_, err = f.svc.SetStep(ctx, "user-1", id, int(wizard.StepPictures))
	require.NoError(t, err)
	_, err = f.svc.AddPictures(ctx, "user-1", id, []PictureUpload{{Name: "a.jpg", Data: jpegBytes}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, "user-1", id))
	assert.Zero(t, f.stagedFiles(t))

	_, err = f.svc.Get(ctx, "user-1", id, nil)
	assert.ErrorIs(t, err, ErrWizardNotFound)
}

func TestWizardService_CleanupAbandoned(t *testing.T) {
	f := newWizardFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	f.svc.now = func() time.Time { return base.Add(-48 * time.Hour) }
	oldID, _, err := f.svc.Create(ctx, "user-1")
	require.NoError(t, err)
	_, err = f.svc.SetStep(ctx, "user-1", oldID, int(wizard.StepPictures))
	require.NoError(t, err)
	_, err = f.svc.AddPictures(ctx, "user-1", oldID, []PictureUpload{{Name: "a.jpg", Data: jpegBytes}})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return base }
	freshID, _, err := f.svc.Create(ctx, "user-2")
	require.NoError(t, err)

	removed, err := f.svc.CleanupAbandoned(ctx, base.Add(-24*time.Hour), 100)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Zero(t, f.stagedFiles(t))

	_, err = f.svc.Get(ctx, "user-1", oldID, nil)
	assert.ErrorIs(t, err, ErrWizardNotFound)
	_, err = f.svc.Get(ctx, "user-2", freshID, nil)
	assert.NoError(t, err)
}
