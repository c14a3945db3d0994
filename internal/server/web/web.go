// Package web serves the embedded single-page front end.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var assets embed.FS

//go:embed static/index.html
var indexHTML []byte

// RegisterRoutes mounts the front end: the app shell at "/" and its assets
// under "/static". The app uses hash-based routing (#/login, #/register,
// #/profile) so its views never collide with the JSON API paths.
func RegisterRoutes(r *gin.Engine) {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// embed guarantees the directory exists; reaching this is a build defect
		panic(err)
	}

	// Served directly instead of through the file server, which would
	// redirect "/index.html" to "./".
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	r.StaticFS("/static", http.FS(sub))
}
