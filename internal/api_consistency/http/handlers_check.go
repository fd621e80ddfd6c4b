package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/routelens/routelens-backend/internal/api_consistency/classify"
	"github.com/routelens/routelens-backend/internal/api_consistency/domain"
	"github.com/routelens/routelens-backend/internal/api_consistency/repository"
	"github.com/routelens/routelens-backend/internal/api_consistency/scoring"
	"github.com/routelens/routelens-backend/internal/api_consistency/service"
	"github.com/routelens/routelens-backend/internal/api_consistency/utils"
)

type Handler struct {
	reports     *repository.ReportRepository
	cfg         classify.Config
	outDir      string
	incomingDir string
	dotBin      string
}

// NewHandler wires the consistency endpoints. reports may be nil when the
// server runs without a database; persistence is then skipped.
func NewHandler(reports *repository.ReportRepository, cfg classify.Config, outDir, incomingDir, dotBin string) *Handler {
	if outDir == "" {
		outDir = "out"
	}
	if incomingDir == "" {
		incomingDir = "incoming"
	}
	return &Handler{
		reports:     reports,
		cfg:         cfg,
		outDir:      outDir,
		incomingDir: incomingDir,
		dotBin:      dotBin,
	}
}

func (h *Handler) CheckRaw(c *gin.Context) {
	var req CheckRawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Facts) == 0 {
		c.String(http.StatusBadRequest, "facts is required")
		return
	}
	if req.OutDir == "" {
		req.OutDir = h.outDir
	}
	if req.Title == "" {
		req.Title = "Consistency Check"
	}

	cfg := h.cfg
	if req.Classify != "" {
		parsed, err := classify.ParseString(req.Classify)
		if err != nil {
			c.String(http.StatusBadRequest, fmt.Sprintf("invalid classify config: %v", err))
			return
		}
		cfg = parsed
	}

	h.runCheck(c, []byte(req.Facts), req.OutDir, req.Title, req.Project, cfg)
}

func (h *Handler) CheckUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "file is required")
		return
	}

	outDir := c.DefaultPostForm("out_dir", h.outDir)
	project := c.PostForm("project")

	title := c.PostForm("title")
	if title == "" {
		base := filepath.Base(file.Filename)
		title = strings.TrimSuffix(base, filepath.Ext(base))
		if title == "" {
			title = "Consistency Check"
		}
	}

	_ = os.MkdirAll(h.incomingDir, 0o755)
	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".json"
	}
	tmpPath := filepath.Join(h.incomingDir, utils.NewID()+ext)
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("saving uploaded file failed: %v", err))
		return
	}
	defer os.Remove(tmpPath)

	facts, err := os.ReadFile(tmpPath)
	if err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("reading uploaded file failed: %v", err))
		return
	}

	cfg := h.cfg
	if cf, err := c.FormFile("classify"); err == nil {
		cfgPath := filepath.Join(h.incomingDir, utils.NewID()+".yaml")
		if err := c.SaveUploadedFile(cf, cfgPath); err != nil {
			c.String(http.StatusInternalServerError, fmt.Sprintf("saving classify file failed: %v", err))
			return
		}
		defer os.Remove(cfgPath)

		parsed, err := classify.Load(cfgPath)
		if err != nil {
			c.String(http.StatusBadRequest, fmt.Sprintf("invalid classify config: %v", err))
			return
		}
		cfg = parsed
	}

	h.runCheck(c, facts, outDir, title, project, cfg)
}

func (h *Handler) runCheck(c *gin.Context, facts []byte, outDir, title, project string, cfg classify.Config) {
	logger := service.NewLogger(c.Request.Context())

	res, err := service.AnalyzeFactsBytesRun(facts, outDir, title, h.dotBin, cfg)
	if err != nil {
		service.RecordAnalysisFailure()
		logger.Error("analyze", err)
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidFacts) {
			status = http.StatusBadRequest
		}
		c.String(status, fmt.Sprintf("analyze failed: %v", err))
		return
	}
	service.RecordAnalysis(len(res.Report.Issues))

	summary := scoring.Summarize(res.Report)

	out := CheckResponse{
		RunID:   res.RunID,
		Summary: summary,
		Report:  res.Report,
		DOTPath: res.DOTPath,
		SVGPath: res.SVGPath,
	}

	// Persistence is best effort; the analysis result is still returned
	// when the insert fails.
	if project != "" && h.reports != nil {
		stored := &repository.StoredReport{
			ProjectID: project,
			RunID:     res.RunID,
			Score:     summary.Score,
			Report:    res.Report,
		}
		if err := h.reports.Save(stored); err != nil {
			logger.Error("save_report", err)
		} else {
			service.RecordReportStored()
			out.ReportID = stored.ID
		}
	}

	c.JSON(http.StatusOK, out)
}
