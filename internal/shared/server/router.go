package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"trainee-backend/internal/services/health"
	"trainee-backend/internal/shared/config"
	"trainee-backend/internal/shared/metrics"
	"trainee-backend/internal/shared/server/middleware"
	"trainee-backend/internal/shared/server/respond"
	"trainee-backend/internal/shared/storage/object"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// PublicFiles serves objects stored with a public ACL.
type PublicFiles interface {
	OpenPublic(ctx context.Context, key string) (io.ReadCloser, error)
}

// RouterDeps lists what NewRouter wires. Nil handlers are skipped.
type RouterDeps struct {
	Config                config.Config
	Health                *health.Service
	TraineeHandler        RouteRegistrar
	ProfilePictureHandler RouteRegistrar
	LetterHandler         RouteRegistrar
	PublicFiles           PublicFiles
}

const (
	rateGroupUpload  = "UPLOAD"
	rateGroupLetters = "LETTERS"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	perMin := deps.Config.UploadRatePerMin
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroupFor,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupUpload:  {Rate: perMin / 60, Burst: burst(perMin)},
				rateGroupLetters: {Rate: perMin / 60, Burst: burst(perMin)},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		ok, checks := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})

	for _, h := range []RouteRegistrar{deps.TraineeHandler, deps.ProfilePictureHandler, deps.LetterHandler} {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	if deps.PublicFiles != nil {
		r.GET("/files/*key", servePublicFile(deps.PublicFiles))
	}

	return r
}

func rateGroupFor(c *gin.Context) string {
	switch {
	case c.Request.Method == http.MethodPut && c.FullPath() == "/api/trainees/:id/profile-picture":
		return rateGroupUpload
	case c.Request.Method == http.MethodPost && c.FullPath() == "/api/letters/:type":
		return rateGroupLetters
	default:
		return ""
	}
}

func burst(perMin float64) int {
	if perMin <= 0 {
		return 0
	}
	b := int(perMin / 6)
	if b < 1 {
		b = 1
	}
	return b
}

func servePublicFile(files PublicFiles) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		rc, err := files.OpenPublic(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
				return
			}
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid file key", nil)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Cache-Control", "public, max-age=300")
		c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
