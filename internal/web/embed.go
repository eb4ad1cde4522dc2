// Package web provides the embedded page script and stylesheet.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed dist/*
var staticFiles embed.FS

// StaticPrefix is the URL prefix the page loads its assets from.
const StaticPrefix = "/static"

// GetFileSystem returns the embedded filesystem with the dist folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "dist")
}

// RegisterStaticRoutes serves the embedded assets under StaticPrefix.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}

	fileServer := http.StripPrefix(StaticPrefix, http.FileServer(http.FS(staticFS)))
	e.GET(StaticPrefix+"/*", func(c echo.Context) error {
		name := c.Param("*")
		f, err := staticFS.Open(name)
		if err != nil {
			return echo.NewHTTPError(http.StatusNotFound, "asset not found: "+name)
		}
		stat, err := f.Stat()
		f.Close()
		if err != nil || stat.IsDir() {
			return echo.NewHTTPError(http.StatusNotFound, "asset not found: "+name)
		}

		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})
	return nil
}

// GetEmbeddedFile returns a specific file from the embedded filesystem.
func GetEmbeddedFile(name string) (fs.File, error) {
	staticFS, err := GetFileSystem()
	if err != nil {
		return nil, err
	}
	return staticFS.Open(name)
}
