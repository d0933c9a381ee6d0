package controller

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// contentPages whitelists the JSON documents served from the content
// directory.
var contentPages = []string{"about", "events", "workshops", "faq"}

type ContentController struct {
	Logger *log.Logger

	pages map[string]json.RawMessage
}

// NewContentController loads every page at startup; the content files only
// change between deployments.
func NewContentController(dir string, logger *log.Logger) (*ContentController, error) {
	cc := &ContentController{
		Logger: logger,
		pages:  make(map[string]json.RawMessage, len(contentPages)),
	}

	for _, page := range contentPages {
		data, err := os.ReadFile(filepath.Join(dir, page+".json"))
		if err != nil {
			return nil, err
		}
		if !json.Valid(data) {
			logger.Printf("content file %s.json is not valid JSON", page)
			continue
		}
		cc.pages[page] = json.RawMessage(data)
	}

	return cc, nil
}

func (cc *ContentController) GetPage(c *fiber.Ctx) error {
	page := c.Params("page")

	data, ok := cc.pages[page]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Page not found",
		})
	}

	c.Set("Content-Type", "application/json")
	return c.Send(data)
}
