package controllers

import (
	"classdesk_go/normalize"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
)

// PhotoProxyController relays avatar images from hosts that refuse
// cross-origin loads. Only allow-listed hosts are fetched.
type PhotoProxyController struct {
	hosts   normalize.HostList
	timeout time.Duration
}

func NewPhotoProxyController(hosts normalize.HostList) *PhotoProxyController {
	return &PhotoProxyController{hosts: hosts, timeout: 10 * time.Second}
}

// GET /api/photo-proxy?url=https://...
func (pc *PhotoProxyController) Get(c *fiber.Ctx) error {
	raw := c.Query("url")
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url is required"})
	}
	target, err := url.Parse(raw)
	if err != nil || target.Host == "" || (target.Scheme != "https" && target.Scheme != "http") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url must be an absolute http(s) URL"})
	}
	if !pc.hosts.Match(target.Hostname()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "host is not allowed"})
	}
	target.Scheme = "https"

	c.Request().Header.Del(fiber.HeaderAuthorization)
	c.Request().Header.Del(fiber.HeaderCookie)
	if err := proxy.DoTimeout(c, target.String(), pc.timeout); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to fetch image"})
	}

	c.Response().Header.Del(fiber.HeaderSetCookie)
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return nil
}
