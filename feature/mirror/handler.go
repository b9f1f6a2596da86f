package mirror

import (
	"strings"

	"stock-mirror/core/logger"
	"stock-mirror/feature/mirror/resolver"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for sync runs and barcode resolution.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/stores/:store", h.HandleStartSync)
	group.Get("/jobs", h.HandleListJobs)
	group.Get("/jobs/:id", h.HandleGetJob)
	group.Delete("/jobs/:id", h.HandleCancelJob)

	app.Get("/resolve/:barcode", h.HandleResolveBarcode)
	app.Delete("/mappings/:barcode", h.HandleInvalidateMapping)
}

type startSyncRequest struct {
	StoreName string `json:"store_name"`
	Hints     map[string]struct {
		VariantID         string `json:"variant_id"`
		AllowEmptyBarcode bool   `json:"allow_empty_barcode"`
	} `json:"hints"`
}

// HandleStartSync launches an asynchronous sync run for one store.
// @Summary Start Sync Run
// @Description Starts a background sync run pushing the store's inventory snapshot to its remote stock location. Returns the tracking job.
// @Tags sync
// @Accept json
// @Produce json
// @Param store path string true "Store ID"
// @Success 202 {object} Job "Tracking Job"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /sync/stores/{store} [post]
func (h *Handler) HandleStartSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	storeID := c.Params("store")
	var req startSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.StoreName) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "store_name is required"})
	}

	hints := make(map[string]resolver.Hint, len(req.Hints))
	for barcode, hint := range req.Hints {
		hints[strings.TrimSpace(barcode)] = resolver.Hint{
			VariantID:         hint.VariantID,
			AllowEmptyBarcode: hint.AllowEmptyBarcode,
		}
	}

	job := h.service.StartSyncJob(storeID, req.StoreName, hints)
	l.Info("Started sync job",
		zap.String("job_id", job.ID),
		zap.String("store_id", storeID))

	return c.Status(fiber.StatusAccepted).JSON(job)
}

// HandleListJobs lists all known sync jobs, newest first.
// @Summary List Sync Jobs
// @Description Lists all sync jobs started since the server came up.
// @Tags sync
// @Produce json
// @Success 200 {array} Job "Jobs"
// @Router /sync/jobs [get]
func (h *Handler) HandleListJobs(c *fiber.Ctx) error {
	return c.JSON(h.service.Jobs().List())
}

// HandleGetJob returns one job with its summary once finished.
// @Summary Get Sync Job
// @Description Returns a sync job by ID, including the run summary once the job has finished.
// @Tags sync
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} Job "Job"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sync/jobs/{id} [get]
func (h *Handler) HandleGetJob(c *fiber.Ctx) error {
	job, ok := h.service.Jobs().Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "job not found"})
	}
	return c.JSON(job)
}

// HandleCancelJob requests cancellation of a running job.
// @Summary Cancel Sync Job
// @Description Requests cancellation of a running sync job. The run stops between items; completed writes stay applied.
// @Tags sync
// @Produce json
// @Param id path string true "Job ID"
// @Success 202 {object} map[string]string "Cancellation Requested"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /sync/jobs/{id} [delete]
func (h *Handler) HandleCancelJob(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	id := c.Params("id")
	if !h.service.Jobs().Cancel(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no running job with that id"})
	}
	l.Info("Requested job cancellation", zap.String("job_id", id))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "cancelling"})
}

// HandleResolveBarcode resolves one barcode through the discovery pipeline.
// @Summary Resolve Barcode
// @Description Resolves a barcode to its remote product mapping, running the full discovery pipeline including the exhaustive catalog scan.
// @Tags resolve
// @Produce json
// @Param barcode path string true "Barcode"
// @Param hint query string false "Remote variant ID import hint"
// @Param allow_empty_barcode query boolean false "Trust a hinted variant without a barcode"
// @Success 200 {object} resolver.Resolution "Resolution"
// @Failure 404 {object} map[string]string "No Counterpart"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /resolve/{barcode} [get]
func (h *Handler) HandleResolveBarcode(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var hint *resolver.Hint
	if v := c.Query("hint"); v != "" {
		hint = &resolver.Hint{
			VariantID:         v,
			AllowEmptyBarcode: c.Query("allow_empty_barcode") == "true",
		}
	}

	res, err := h.service.ResolveBarcode(c.Context(), c.Params("barcode"), hint)
	if err != nil {
		l.Error("Barcode resolution failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !res.Found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"barcode": res.Barcode,
			"found":   false,
		})
	}
	return c.JSON(fiber.Map{
		"barcode": res.Barcode,
		"found":   true,
		"method":  res.Method,
		"mapping": res.Mapping,
	})
}

// HandleInvalidateMapping drops a barcode's persisted mapping.
// @Summary Invalidate Mapping
// @Description Removes a barcode's mapping from the cache and the durable store so the next resolution rediscovers it.
// @Tags resolve
// @Produce json
// @Param barcode path string true "Barcode"
// @Success 200 {object} map[string]string "Invalidated"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /mappings/{barcode} [delete]
func (h *Handler) HandleInvalidateMapping(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	barcode := c.Params("barcode")
	if err := h.service.InvalidateMapping(c.Context(), barcode); err != nil {
		l.Error("Failed to invalidate mapping", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	l.Info("Invalidated mapping", zap.String("barcode", barcode))
	return c.JSON(fiber.Map{"status": "invalidated", "barcode": barcode})
}
