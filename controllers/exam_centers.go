package controllers

import (
	"classdesk_go/csvimport"
	"classdesk_go/database"
	"classdesk_go/middleware"
	"classdesk_go/services"
	"classdesk_go/utils"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

type ExamCenterController struct {
	service  *services.ExamCenterService
	recorder middleware.ActivityRecorder
}

func NewExamCenterController(service *services.ExamCenterService, recorder middleware.ActivityRecorder) *ExamCenterController {
	return &ExamCenterController{service: service, recorder: recorder}
}

func filterFromQuery(c *fiber.Ctx) database.ExamCenterFilter {
	return database.ExamCenterFilter{
		ExamType: c.Query("exam_type"),
		State:    c.Query("state"),
		Search:   c.Query("search"),
	}
}

// GET /api/exam-centers?exam_type=NEET&state=&search=&page=1&limit=20
func (ec *ExamCenterController) List(c *fiber.Ctx) error {
	page := utils.ParsePositiveInt(c.Query("page"), 1)
	limit := utils.ParsePositiveInt(c.Query("limit"), 20)

	centers, total, err := ec.service.List(c.UserContext(), filterFromQuery(c), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"exam_centers": utils.ToExamCenterShorts(centers),
		"pagination":   utils.NewPageMeta(page, limit, total),
	})
}

func (ec *ExamCenterController) Get(c *fiber.Ctx) error {
	center, err := ec.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"exam_center": center})
}

func (ec *ExamCenterController) Create(c *fiber.Ctx) error {
	return ec.save(c, "")
}

func (ec *ExamCenterController) Update(c *fiber.Ctx) error {
	return ec.save(c, c.Params("id"))
}

func (ec *ExamCenterController) save(c *fiber.Ctx, id string) error {
	rec := csvimport.ExamCenterRecord{IsActive: true}
	if err := c.BodyParser(&rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	center, issues, err := ec.service.Save(c.UserContext(), middleware.GetCapabilities(c), id, rec)
	if err != nil {
		return respondError(c, err)
	}
	if len(issues) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"issues": issues,
		})
	}

	status := fiber.StatusOK
	if id == "" {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"exam_center": center})
}

func (ec *ExamCenterController) Delete(c *fiber.Ctx) error {
	if err := ec.service.Delete(c.UserContext(), middleware.GetCapabilities(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Exam center deleted successfully"})
}

// Import reads a .csv or .xlsx upload from form field "file".
// POST /api/exam-centers/import?dry_run=true&mode=concurrent
func (ec *ExamCenterController) Import(c *fiber.Ctx) error {
	mode, err := services.ParseImportMode(c.Query("mode"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	dryRun := utils.ParseBoolFlag(c.Query("dry_run"))

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
	}
	defer f.Close()

	var parsed csvimport.ParseResult
	switch utils.FileExtension(fh.Filename) {
	case "csv":
		parsed = csvimport.ReadCSV(f)
	case "xlsx":
		parsed = csvimport.ReadXLSX(f)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv,xlsx)"})
	}

	summary, err := ec.service.Import(c.UserContext(), middleware.GetCapabilities(c), parsed, mode, dryRun)
	if err != nil {
		return respondError(c, err)
	}

	if !dryRun {
		middleware.LogActivity(c, ec.recorder, "IMPORT", "exam-centers", "", fiber.Map{
			"file":     fh.Filename,
			"mode":     mode,
			"inserted": summary.Inserted,
			"failed":   summary.Failed,
			"invalid":  len(summary.Errors),
		})
	}
	return c.JSON(summary)
}

// GET /api/exam-centers/export?format=csv|xlsx
func (ec *ExamCenterController) Export(c *fiber.Ctx) error {
	body, contentType, ext, err := ec.service.Export(c.UserContext(), filterFromQuery(c), c.Query("format", "csv"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	name := utils.SanitizeFilename(fmt.Sprintf("exam_centers_%s.%s", time.Now().Format("20060102"), ext))
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(body)
}

// GET /api/exam-centers/template
func (ec *ExamCenterController) Template(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="exam_centers_template.csv"`)
	return c.SendStream(ec.service.Template())
}
