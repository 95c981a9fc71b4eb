package controllers

import (
	"classdesk_go/middleware"
	"classdesk_go/services"
	"classdesk_go/utils"
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// AvatarUploader stores an avatar image and returns its object path.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, file *multipart.FileHeader, ownerID string) (string, error)
	DeleteAvatar(ctx context.Context, path string) error
}

// RecordController serves the class request and web user grids. Both go
// through the same normalizing service, configured per entity.
type RecordController struct {
	service *services.RecordService
	avatars AvatarUploader
}

func NewRecordController(service *services.RecordService, avatars AvatarUploader) *RecordController {
	return &RecordController{service: service, avatars: avatars}
}

// List returns one page of normalized rows.
// GET /api/<resource>?page=1&page_size=20&order_by=created_at&order=desc
func (rc *RecordController) List(c *fiber.Ctx) error {
	pageSize := utils.ParsePositiveInt(c.Query("page_size"), 0)
	if pageSize == 0 {
		pageSize = utils.ParsePositiveInt(c.Query("limit"), 20)
	}
	res, err := rc.service.List(c.UserContext(), services.ListQuery{
		Page:     utils.ParsePositiveInt(c.Query("page"), 1),
		PageSize: pageSize,
		OrderBy:  c.Query("order_by"),
		Desc:     !strings.EqualFold(c.Query("order"), "asc"),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"rows":                   res.Rows,
		"validation_error_count": res.ValidationErrorCount,
		"pagination":             utils.NewPageMeta(res.Page, res.PageSize, res.Total),
	})
}

func (rc *RecordController) Get(c *fiber.Ctx) error {
	row, err := rc.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"row": row})
}

// Update accepts a JSON object of canonical field names to new values.
func (rc *RecordController) Update(c *fiber.Ctx) error {
	var edits map[string]interface{}
	if err := c.BodyParser(&edits); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if role, ok := edits["role"]; ok {
		r, _ := role.(string)
		if !utils.IsValidRole(r) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		if !middleware.GetCapabilities(c).CanDelete {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Only admins can change roles"})
		}
	}
	for k, v := range edits {
		if s, ok := v.(string); ok {
			edits[k] = utils.SanitizeString(s)
		}
	}

	row, err := rc.service.Update(c.UserContext(), middleware.GetCapabilities(c), c.Params("id"), edits)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Record updated successfully", "row": row})
}

// SetApproval records an admin decision on a class request.
// PUT /api/class-requests/:id/approval {"decision":"Approved"}
func (rc *RecordController) SetApproval(c *fiber.Ctx) error {
	var body struct {
		Decision string `json:"decision"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	approver := middleware.GetCapabilities(c).UserID
	if claims, err := middleware.GetCurrentClaims(c); err == nil && claims.Email != "" {
		approver = claims.Email
	}

	row, err := rc.service.SetApproval(c.UserContext(), middleware.GetCapabilities(c), c.Params("id"), body.Decision, approver)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Decision recorded", "row": row})
}

// UploadAvatar stores the "avatar" form file and points the row at it.
func (rc *RecordController) UploadAvatar(c *fiber.Ctx) error {
	if rc.avatars == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "Avatar uploads are not configured"})
	}
	caps := middleware.GetCapabilities(c)
	if !caps.CanEdit {
		return respondError(c, services.ErrForbidden)
	}
	id := c.Params("id")
	if _, err := rc.service.Get(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No file uploaded"})
	}
	if !utils.IsValidFileExtension(file.Filename, []string{"jpg", "jpeg", "png", "gif", "webp"}) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported image type"})
	}

	path, err := rc.avatars.UploadAvatar(c.UserContext(), file, id)
	if err != nil {
		return respondError(c, err)
	}
	row, previous, err := rc.service.SetAvatarPath(c.UserContext(), caps, id, path)
	if err != nil {
		rc.removeAvatar(path)
		return respondError(c, err)
	}
	if previous != "" && previous != path {
		rc.removeAvatar(previous)
	}
	return c.JSON(fiber.Map{"message": "Avatar uploaded successfully", "row": row})
}

// removeAvatar deletes an object that is no longer referenced. Failures only
// leave an orphan behind, so they are logged.
func (rc *RecordController) removeAvatar(path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.avatars.DeleteAvatar(ctx, path); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("Failed to delete avatar object")
	}
}

func (rc *RecordController) Delete(c *fiber.Ctx) error {
	if err := rc.service.Delete(c.UserContext(), middleware.GetCapabilities(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Record deleted successfully"})
}
