package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	docs "github.com/japb1998/contacts/docs"
	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/internal/controller"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/service"
	"github.com/japb1998/contacts/internal/validation"
)

const (
	ScopeName = "github.com/japb1998/contacts/internal/api"
)

// metrics are registered once per process with the default registry.
var metrics = sync.OnceValue(func() *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus("contacts")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		if route := c.FullPath(); route != "" {
			return route
		}
		return "unmatched"
	}
	return p
})

func InitRoutes(cfg *config.Config, svc *service.ContactService, logger *zap.Logger) *gin.Engine {
	routerLogger := logger.Named("api")
	routerLogger.Info("gin cold start")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.Register(v); err != nil {
			routerLogger.Fatal("failed to register validators", zap.Error(err))
		}
	}

	corsConfig := cors.DefaultConfig()
	if cfg.CORSOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = strings.Split(cfg.CORSOrigin, ",")
		// To be able to send cookies to the server.
		corsConfig.AllowCredentials = true
	}
	corsConfig.AddAllowHeaders(RequestIDHeader)
	corsConfig.AddExposeHeaders(RequestIDHeader)

	r.Use(recoverMiddleware(routerLogger, cfg.IsDevelopment()))
	r.Use(requestIDMiddleware())
	r.Use(loggerMiddleware(routerLogger))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(cors.New(corsConfig))
	r.Use(securityHeadersMiddleware())
	r.Use(bodyLimitMiddleware(maxBodyBytes))
	metrics().Use(r)
	r.Use(controller.ErrorHandler(logger))

	// SWAGGER
	docs.SwaggerInfo.BasePath = cfg.APIPrefix
	{
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
	}

	contactController := controller.NewContactController(svc, logger)
	health := controller.Health(time.Now())

	v1 := r.Group(cfg.APIPrefix)
	{
		v1.GET("/healthcheck", health)
	}

	//CONTACT ROUTER
	contacts := v1.Group("/contacts")
	{
		contacts.GET("", contactController.ListContacts)
		contacts.POST("", contactController.CreateContact)
		contacts.POST("/bulk-delete", contactController.BulkDeleteContacts)
		contacts.GET("/:id", contactController.GetContact)
		contacts.PUT("/:id", contactController.UpdateContact)
		contacts.DELETE("/:id", contactController.DeleteContact)
	}

	r.NoRoute(noRoute(cfg.PublicDir))
	return r
}

// noRoute serves files from publicDir when configured and answers 404 with
// the error envelope otherwise.
func noRoute(publicDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if publicDir != "" && c.Request.Method == http.MethodGet {
			name := filepath.Join(publicDir, filepath.FromSlash(filepath.Clean("/"+c.Request.URL.Path)))
			if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
				c.File(name)
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusNotFound, dto.ErrorResponse{Message: "Route not found"})
	}
}
