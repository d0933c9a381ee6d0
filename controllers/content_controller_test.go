package controller

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContentDir(t *testing.T, pages map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range pages {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644))
	}
	return dir
}

func allContentPages(t *testing.T) map[string]string {
	t.Helper()
	return map[string]string{
		"about":     `{"title":"TechNova"}`,
		"events":    `{"events":[]}`,
		"workshops": `{"workshops":[]}`,
		"faq":       `{"faqs":[]}`,
	}
}

func TestContentControllerServesPages(t *testing.T) {
	dir := writeContentDir(t, allContentPages(t))

	cc, err := NewContentController(dir, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/content/:page", cc.GetPage)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/content/about", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "TechNova", body["title"])
}

func TestContentControllerUnknownPage(t *testing.T) {
	dir := writeContentDir(t, allContentPages(t))

	cc, err := NewContentController(dir, log.New(io.Discard, "", 0))
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/content/:page", cc.GetPage)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/content/schedule", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestContentControllerMissingFile(t *testing.T) {
	pages := allContentPages(t)
	delete(pages, "faq")
	dir := writeContentDir(t, pages)

	_, err := NewContentController(dir, log.New(io.Discard, "", 0))
	assert.Error(t, err)
}
