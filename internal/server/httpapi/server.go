// Package httpapi exposes the authentication boundary over HTTP+JSON:
// registration, login, and the token-protected profile read, plus the
// embedded single-page front end.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wavelength-app/wavelength/internal/logging"
	"github.com/wavelength-app/wavelength/internal/server/services"
	"github.com/wavelength-app/wavelength/internal/server/web"
)

type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	jwtSecret []byte
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, secretKey string) (*HTTPServer, error) {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		jwtSecret: []byte(secretKey),
	}, nil
}

// router builds the gin engine with middleware and all routes.
func (s *HTTPServer) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(corsMiddleware())

	api := r.Group("/api")
	{
		api.POST("/register", s.registerUser)
		api.POST("/login", s.loginUser)
		api.GET("/ping", s.ping)
		api.GET("/profile", s.bearerAuth(), s.getProfile)
	}

	// kept alongside /api/profile for compatibility with the original paths
	r.GET("/profile", s.bearerAuth(), s.getProfile)

	web.RegisterRoutes(r)

	return r
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
