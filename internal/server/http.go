package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/entity"
	"github.com/joseph-ayodele/payslip-tracker/internal/export"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPHandler serves the REST API under /api/v1.
type HTTPHandler struct {
	processor      *pipeline.Processor
	payslips       repository.PayslipRepository
	logs           repository.ActionLogRepository
	exporter       *export.Service
	db             *repository.DB
	maxUploadBytes int64
	logger         *slog.Logger
}

type HTTPConfig struct {
	Processor      *pipeline.Processor
	Payslips       repository.PayslipRepository
	Logs           repository.ActionLogRepository
	Exporter       *export.Service
	DB             *repository.DB // optional, enables the database check in /health
	MaxUploadBytes int64
}

func NewHTTPHandler(cfg HTTPConfig, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = constants.MaxUploadBytes
	}
	return &HTTPHandler{
		processor:      cfg.Processor,
		payslips:       cfg.Payslips,
		logs:           cfg.Logs,
		exporter:       cfg.Exporter,
		db:             cfg.DB,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
	}
}

// Router builds the gin engine with all routes registered.
func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.MaxMultipartMemory = h.maxUploadBytes + (1 << 20)

	r.GET("/health", h.health)

	api := r.Group("/api/v1")
	{
		payslips := api.Group("/payslips")
		{
			payslips.POST("", h.upload)
			payslips.POST("/analyze", h.analyze)
			payslips.GET("", h.list)
			payslips.GET("/:id", h.get)
			payslips.PATCH("/:id", h.update)
			payslips.DELETE("/:id", h.delete)
		}
		api.GET("/statistics", h.statistics)
		api.GET("/export.xlsx", h.export)
		api.GET("/logs", h.recentLogs)
	}
	return r
}

func (h *HTTPHandler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx, reqID := common.EnsureRequestID(c.Request.Context())
		c.Request = c.Request.WithContext(common.WithLogger(ctx, h.logger.With("request_id", reqID)))
		c.Header("X-Request-ID", reqID)

		c.Next()

		h.logger.Info("http.request",
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}

func (h *HTTPHandler) health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context(), 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "payslip-tracker"})
}

func (h *HTTPHandler) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "file is required", err)
		return
	}
	if _, err := ingest.ValidateUpload(file.Filename, file.Size, h.maxUploadBytes); err != nil {
		h.sendError(c, statusFor(err), "invalid upload", err)
		return
	}

	reader, err := file.Open()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "failed to open uploaded file", err)
		return
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "failed to read uploaded file", err)
		return
	}

	out, err := h.processor.Process(c.Request.Context(), file.Filename, data)
	if err != nil {
		h.sendError(c, statusFor(err), "processing failed", err)
		return
	}
	code := http.StatusOK
	if out.Payslip != nil {
		code = http.StatusCreated
	}
	c.JSON(code, out)
}

func (h *HTTPHandler) analyze(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUploadBytes))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "failed to read body", err)
		return
	}
	rec, verdict := h.processor.Analyze(string(body))
	c.JSON(http.StatusOK, gin.H{"record": rec, "verdict": verdict})
}

func (h *HTTPHandler) list(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		rows []*entity.Payslip
		err  error
	)
	switch name, period := c.Query("name"), c.Query("period"); {
	case name != "":
		rows, err = h.payslips.QueryByName(ctx, name)
	case period != "":
		if verr := common.NewValidator().Field("period", period, common.Period).Error(); verr != nil {
			h.sendError(c, http.StatusBadRequest, "invalid period", verr)
			return
		}
		rows, err = h.payslips.QueryByPeriod(ctx, period)
	default:
		limit, perr := intQuery(c, "limit", 100)
		if perr != nil {
			h.sendError(c, http.StatusBadRequest, "invalid limit", perr)
			return
		}
		rows, err = h.payslips.List(ctx, limit)
	}
	if err != nil {
		h.sendError(c, statusFor(err), "query failed", err)
		return
	}
	if rows == nil {
		rows = []*entity.Payslip{}
	}
	c.JSON(http.StatusOK, gin.H{"payslips": rows, "count": len(rows)})
}

func (h *HTTPHandler) get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid id", err)
		return
	}
	row, err := h.payslips.GetByID(c.Request.Context(), id)
	if err != nil {
		h.sendError(c, statusFor(err), "lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

type updateRequest struct {
	Name        *string          `json:"name"`
	NationalID  *string          `json:"national_id"`
	Period      *string          `json:"period"`
	Employer    *string          `json:"employer"`
	Role        *string          `json:"role"`
	GrossSalary *decimal.Decimal `json:"gross_salary"`
	NetSalary   *decimal.Decimal `json:"net_salary"`
	Deductions  *decimal.Decimal `json:"deductions"`
}

func (h *HTTPHandler) update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid id", err)
		return
	}
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid body", err)
		return
	}
	v := common.NewValidator()
	if req.Period != nil {
		v.Field("period", *req.Period, common.Period)
	}
	if req.Name != nil {
		v.Field("name", *req.Name, common.MaxLen(200))
	}
	if err := v.Error(); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid body", err)
		return
	}

	row, err := h.processor.Update(c.Request.Context(), id, repository.UpdatePayslipRequest{
		Name:        req.Name,
		NationalID:  req.NationalID,
		Period:      req.Period,
		Employer:    req.Employer,
		Role:        req.Role,
		GrossSalary: req.GrossSalary,
		NetSalary:   req.NetSalary,
		Deductions:  req.Deductions,
	})
	if err != nil {
		h.sendError(c, statusFor(err), "update failed", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *HTTPHandler) delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid id", err)
		return
	}
	if err := h.processor.Delete(c.Request.Context(), id); err != nil {
		h.sendError(c, statusFor(err), "delete failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) statistics(c *gin.Context) {
	stats, err := h.payslips.Statistics(c.Request.Context())
	if err != nil {
		h.sendError(c, statusFor(err), "statistics failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *HTTPHandler) export(c *gin.Context) {
	period := c.Query("period")
	if period != "" {
		if err := common.NewValidator().Field("period", period, common.Period).Error(); err != nil {
			h.sendError(c, http.StatusBadRequest, "invalid period", err)
			return
		}
	}
	xlsx, err := h.exporter.ExportPayslipsXLSX(c.Request.Context(), period)
	if err != nil {
		h.sendError(c, statusFor(err), "export failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="payslips.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, xlsx)
}

func (h *HTTPHandler) recentLogs(c *gin.Context) {
	limit, err := intQuery(c, "limit", 100)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid limit", err)
		return
	}
	entries, err := h.logs.Recent(c.Request.Context(), limit)
	if err != nil {
		h.sendError(c, statusFor(err), "log lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries, "count": len(entries)})
}

// sendError sends a structured error response
func (h *HTTPHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	logger := common.LoggerFromContext(c.Request.Context(), h.logger)
	detail := message
	if err != nil {
		detail = err.Error()
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error(message, "path", c.FullPath(), "error", err)
	} else {
		logger.Warn(message, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(statusCode, gin.H{"error": message, "detail": detail})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if verr := common.NewValidator().Field(key, n, common.Between(1, 1000)).Error(); verr != nil {
		return 0, verr
	}
	return n, nil
}
