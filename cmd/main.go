package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"storefront/internal/controller"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/task"
	"storefront/pkg/config"
	"storefront/pkg/database"
	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

// 邮编查询结果缓存时间
const postalCacheTTL = 24 * time.Hour

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ==================== 命令行 ====================

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront BFF: listing wizard, addresses, shopping cart",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./storefront.yml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server and background tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	})
	return root
}

// bootstrap 加载配置并初始化日志
func bootstrap(configPath string) (*config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	flush, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, flush, nil
}

func runMigrate(configPath string) error {
	cfg, flush, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer flush()

	if _, err := initDatabase(cfg); err != nil {
		return err
	}
	zap.L().Info("[Migrate] 数据表已更新")
	return nil
}

func runServe(configPath string) error {
	cfg, flush, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer flush()

	// 1. 初始化数据库
	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	// 2. 初始化依赖
	deps, err := initDependencies(cfg, db)
	if err != nil {
		return err
	}

	// 3. 启动定时任务
	tasks, err := initTasks(cfg, deps)
	if err != nil {
		return err
	}
	defer tasks.Stop()

	// 4. 初始化路由
	r := gin.New()
	r.Use(gin.Recovery())
	router.InitRoutes(r, deps.Controllers, cfg.Auth.JWTSecret)

	// 5. 启动服务
	return startServer(cfg.Server, r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Wizard repository.WizardRepository
	Cart   repository.CartBindingRepository
}

// Services 服务集合
type Services struct {
	Commerce *service.CommerceClient
	Postal   *service.PostalService
	Storage  *service.StorageService
	Wizard   *service.WizardService
	Address  *service.AddressService
	Cart     *service.CartService
}

// ==================== 初始化函数 ====================

// initDatabase 连接数据库、注册审计回调并建表
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(database.Options{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		LogLevel: cfg.DB.LogLevel,
	}, &model.ListingWizard{}, &model.CartBinding{})
	if err != nil {
		return nil, err
	}
	if err := middleware.RegisterAuditCallbacks(db); err != nil {
		return nil, fmt.Errorf("注册审计回调失败: %w", err)
	}
	return db, nil
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config, db *gorm.DB) (*Dependencies, error) {
	// -------- Repo 层 --------
	repos := &Repositories{
		Wizard: repository.NewWizardRepository(db),
		Cart:   repository.NewCartBindingRepository(db),
	}

	// -------- 外部接口 --------
	commerce := service.NewCommerceClient(utils.NewHTTPClient(utils.ClientOptions{
		BaseURL: cfg.Commerce.BaseURL,
		Timeout: cfg.Commerce.Timeout,
		Debug:   cfg.Commerce.Debug,
	}))
	postal := service.NewPostalService(utils.NewHTTPClient(utils.ClientOptions{
		BaseURL: cfg.Postal.BaseURL,
		Timeout: cfg.Postal.Timeout,
	}), utils.NewTTLCache(postalCacheTTL))

	// -------- 存储 --------
	storageSvc, err := initStorageService(cfg.Storage)
	if err != nil {
		return nil, err
	}

	// -------- 业务服务 --------
	services := &Services{
		Commerce: commerce,
		Postal:   postal,
		Storage:  storageSvc,
		Wizard:   service.NewWizardService(repos.Wizard, commerce, commerce, storageSvc, cfg.Wizard.MaxPictures),
		Address:  service.NewAddressService(postal, commerce),
		Cart:     service.NewCartService(commerce, repos.Cart),
	}

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Wizard:  controller.NewWizardController(services.Wizard),
		Address: controller.NewAddressController(services.Address),
		Cart:    controller.NewCartController(services.Cart),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}, nil
}

// initStorageService 初始化图片暂存
func initStorageService(cfg config.StorageConfig) (*service.StorageService, error) {
	provider, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  cfg.Provider,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Endpoint:  cfg.Endpoint,
		BasePath:  cfg.BasePath,
	})
	if err != nil {
		return nil, fmt.Errorf("存储服务初始化失败: %w", err)
	}
	return service.NewStorageService(provider), nil
}

// ==================== 定时任务 ====================

// initTasks 启动后台任务
func initTasks(cfg *config.Config, deps *Dependencies) (*task.TaskManager, error) {
	tm := task.NewTaskManager(&task.TaskManagerDeps{
		WizardCleaner: deps.Services.Wizard,
	}, &task.TaskManagerConfig{
		CleanupEnabled: cfg.Wizard.CleanupCron != "",
		CleanupSpec:    cfg.Wizard.CleanupCron,
		WizardTTL:      cfg.Wizard.TTL,
	})
	if err := tm.Start(); err != nil {
		return nil, err
	}
	return tm, nil
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(cfg config.ServerConfig, r *gin.Engine) error {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("[Server] 服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
	}

	zap.L().Info("[Server] 正在关闭服务...")

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	zap.L().Info("[Server] 服务已退出")
	return nil
}
