package handlers

import (
	"regexp"

	"github.com/calderis/companion_backend/cmd/docs"
	"github.com/calderis/companion_backend/internal/adapters/channel/ws"
	"github.com/calderis/companion_backend/internal/core/ports"
	"github.com/calderis/companion_backend/internal/core/services"
	"github.com/calderis/companion_backend/internal/middleware"
	"github.com/calderis/companion_backend/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// ErrorResponse is the generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

var currencyIDPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// RegisterCustomValidations installs domain validations on gin's binding
// validator. Currency ids travel inside flag keys and channel payloads, so
// they stay lowercase and short.
func RegisterCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currencyid", func(fl validator.FieldLevel) bool {
			return currencyIDPattern.MatchString(fl.Field().String())
		})
	}
}

// RegisterRoutes sets up all application routes, injecting dependencies
// using interfaces.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	svc *services.Container,
	hub ports.SessionHub,
	gateway *ws.Gateway,
) {
	RegisterCustomValidations()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, cfg, svc.Auth)

	// Setup API v1 routes with Auth Middleware
	setupAPIV1Routes(r, cfg, svc, hub, gateway)

	// Swagger routes (not available in production)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific
// entity route registrations.
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	svc *services.Container,
	hub ports.SessionHub,
	gateway *ws.Gateway,
) {
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	registerSettingsRoutes(v1, svc.Settings)
	registerCurrencyRoutes(v1, svc.Definitions)
	RegisterLedgerRoutes(v1, svc.Ledger)
	registerTransferRoutes(v1, svc.Transfer, hub)
	registerPresetRoutes(v1, svc.Presets)
	registerDistanceRoutes(v1, svc.Distance)
	registerPartyRoutes(v1, svc.Party)
	registerSessionRoutes(v1, hub, gateway)
}

// setupSwaggerRoutes configures the swagger documentation routes.
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
