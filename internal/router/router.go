// internal/router/router.go
package router

import (
	"context"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/database"
	"github.com/javajoker/assetdesk/internal/handlers"
	"github.com/javajoker/assetdesk/internal/middleware"
	"github.com/javajoker/assetdesk/internal/repository"
	"github.com/javajoker/assetdesk/internal/services"
)

const Version = "1.0.0"

// Services holds every service the HTTP layer and the scheduler share.
type Services struct {
	Audit     *services.AuditService
	Roles     *services.RoleService
	Auth      *services.AuthService
	Admin     *services.AdminService
	Companies *services.CompanyService
	Products  *services.ProductService
	Taxonomy  *services.TaxonomyService
	Import    *services.ImportService
	WFH       *services.WFHService
	Reminders *services.ReminderService
	Storage   *services.StorageService
}

func NewServices(db *gorm.DB, cfg *config.Config) (*Services, error) {
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	notificationService := services.NewNotificationService(services.NewMailer(cfg.Email))
	productRepo := repository.NewProductRepository(db)
	taxonomyRepo := repository.NewTaxonomyRepository(db)

	auditService := services.NewAuditService(db)
	roleService := services.NewRoleService(db, auditService)
	taxonomyService := services.NewTaxonomyService(taxonomyRepo, productRepo, cfg.Import.AutoDescription)

	return &Services{
		Audit:     auditService,
		Roles:     roleService,
		Auth:      services.NewAuthService(db, cfg, roleService),
		Admin:     services.NewAdminService(db, auditService),
		Companies: services.NewCompanyService(db),
		Products:  services.NewProductService(productRepo, taxonomyRepo, cfg.Import.DefaultTag),
		Taxonomy:  taxonomyService,
		Import:    services.NewImportService(taxonomyService, productRepo, taxonomyRepo, cfg.Import.DefaultTag),
		WFH:       services.NewWFHService(db, notificationService),
		Reminders: services.NewReminderService(db, notificationService),
		Storage:   storageService,
	}, nil
}

func Initialize(db *gorm.DB, cfg *config.Config, svc *Services, limits *middleware.RateLimits) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Auth)
	adminHandler := handlers.NewAdminHandler(svc.Admin, svc.Audit)
	companyHandler := handlers.NewCompanyHandler(svc.Companies)
	roleHandler := handlers.NewRoleHandler(svc.Roles)
	productHandler := handlers.NewProductHandler(svc.Products, svc.Storage)
	importHandler := handlers.NewImportHandler(svc.Import, cfg.Import)
	taxonomyHandler := handlers.NewTaxonomyHandler(svc.Taxonomy)
	wfhHandler := handlers.NewWFHHandler(svc.WFH)
	reminderHandler := handlers.NewReminderHandler(svc.Reminders)
	healthHandler := handlers.NewHealthHandler(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}, Version)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Accept-Language", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.I18nMiddleware())
	r.Use(limits.General.Middleware())

	r.GET("/health", healthHandler.Check)

	if !svc.Storage.UsesS3() && strings.HasPrefix(cfg.Storage.PublicBaseURL, "/") {
		r.Static(cfg.Storage.PublicBaseURL, cfg.Storage.LocalDir)
	}

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", limits.Auth.Middleware(), authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetCurrentUser)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		admin := protected.Group("")
		admin.Use(middleware.AdminRequired())

		// Taxonomy
		protected.GET("/categories", taxonomyHandler.GetCategories)
		protected.GET("/categories/:id", taxonomyHandler.GetCategory)
		admin.POST("/categories", taxonomyHandler.CreateCategory)
		admin.PUT("/categories/:id", taxonomyHandler.UpdateCategory)
		admin.DELETE("/categories/:id", taxonomyHandler.DeleteCategory)

		protected.GET("/asset-types", taxonomyHandler.GetTypes)
		protected.GET("/asset-types/:id", taxonomyHandler.GetType)
		admin.POST("/asset-types", taxonomyHandler.CreateType)
		admin.POST("/asset-types/recount", taxonomyHandler.RecountTypes)
		admin.PUT("/asset-types/:id", taxonomyHandler.UpdateType)
		admin.DELETE("/asset-types/:id", taxonomyHandler.DeleteType)

		// Inventory
		products := protected.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/mine", productHandler.GetMyProducts)
			products.GET("/import/template", importHandler.GetTemplate)
			products.POST("/import", limits.Import.Middleware(), importHandler.ImportProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/attachments", productHandler.GetAttachmentLinks)
			products.POST("", productHandler.CreateProduct)
			products.PUT("/:id", productHandler.UpdateProduct)
			products.DELETE("/:id", productHandler.DeleteProduct)
		}
		admin.DELETE("/products", productHandler.DeleteAllProducts)

		// Companies
		protected.GET("/companies", companyHandler.GetCompanies)
		protected.GET("/companies/:id", companyHandler.GetCompany)
		admin.POST("/companies", companyHandler.CreateCompany)
		admin.PUT("/companies/:id", companyHandler.UpdateCompany)
		admin.DELETE("/companies/:id", companyHandler.DeleteCompany)

		// Roles
		roles := admin.Group("/roles")
		{
			roles.GET("", roleHandler.GetRoles)
			roles.POST("", roleHandler.CreateRole)
			roles.GET("/:id", roleHandler.GetRole)
			roles.PUT("/:id", roleHandler.UpdateRole)
			roles.PUT("/:id/permissions", roleHandler.UpdatePermissions)
			roles.DELETE("/:id", roleHandler.DeleteRole)
		}

		// Work from home
		wfh := protected.Group("/wfh")
		{
			wfh.GET("", wfhHandler.GetRecords)
			wfh.POST("", wfhHandler.CreateRecord)
			wfh.PUT("/:id/review", middleware.AdminRequired(), wfhHandler.ReviewRecord)
			wfh.DELETE("/:id", wfhHandler.DeleteRecord)
		}

		// Reminders
		reminders := protected.Group("/reminders")
		{
			reminders.GET("", reminderHandler.GetReminders)
			reminders.POST("", reminderHandler.CreateReminder)
			reminders.GET("/:id", reminderHandler.GetReminder)
			reminders.PUT("/:id", reminderHandler.UpdateReminder)
			reminders.DELETE("/:id", reminderHandler.DeleteReminder)
		}

		// Administration
		admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		admin.POST("/users", authHandler.CreateUser)
		admin.GET("/admin/dashboard/stats", adminHandler.GetDashboardStats)
		admin.GET("/admin/users", adminHandler.GetUsers)
		admin.PUT("/admin/users/:id", adminHandler.UpdateUser)
	}

	return r
}
