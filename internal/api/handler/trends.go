package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/trendharvest/internal/api/middleware"
	"github.com/timmy/trendharvest/internal/domain"
	"github.com/timmy/trendharvest/internal/repository"
	"github.com/timmy/trendharvest/internal/service"
)

// TrendService is the part of the harvester the HTTP layer uses.
type TrendService interface {
	StartRun(ctx context.Context, rawURL string) (uint, error)
	RunStatus(ctx context.Context, runID uint) (domain.RunStatus, string, error)
	RunResults(ctx context.Context, runID uint) (*domain.Results, error)
	Categories() []domain.Category
	Health(ctx context.Context) service.HealthReport
}

// TrendsHandler handles run submission and result retrieval.
type TrendsHandler struct {
	svc TrendService
}

// NewTrendsHandler creates a new trends handler.
func NewTrendsHandler(svc TrendService) *TrendsHandler {
	return &TrendsHandler{svc: svc}
}

// AnalyzeRequest is the body of POST /api/trends/analyze.
type AnalyzeRequest struct {
	URL string `json:"url" binding:"required"`
}

// Analyze handles POST /api/trends/analyze.
func (h *TrendsHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	runID, err := h.svc.StartRun(c.Request.Context(), req.URL)
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid URL is required: " + err.Error()})
		return
	case errors.Is(err, service.ErrShuttingDown):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service is shutting down"})
		return
	case err != nil:
		middleware.GetLogger(c).WithError(err).Error("Failed to start run")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start analysis"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":  runID,
		"status":  "started",
		"message": fmt.Sprintf("Trend analysis started. Check status with /api/trends/runs/%d/status", runID),
	})
}

// Status handles GET /api/trends/runs/:id/status.
func (h *TrendsHandler) Status(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	status, notes, err := h.svc.RunStatus(c.Request.Context(), runID)
	if errors.Is(err, repository.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found", "status": "not_found"})
		return
	}
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to load run status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status, "notes": notes})
}

type runInfo struct {
	ID            uint                 `json:"id"`
	URL           string               `json:"url"`
	Status        domain.RunStatus     `json:"status"`
	Notes         string               `json:"notes"`
	ContentSource domain.ContentSource `json:"content_source"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    *time.Time           `json:"finished_at"`
}

type detectedCategory struct {
	Name       string  `json:"name"`
	TrendsID   int     `json:"trends_id"`
	YouTubeID  string  `json:"youtube_id"`
	Confidence float64 `json:"confidence"`
}

type interestSample struct {
	Date     time.Time `json:"date"`
	Interest int       `json:"interest"`
}

// ResultsResponse is the body of GET /api/trends/runs/:id/results.
type ResultsResponse struct {
	RunInfo          runInfo                     `json:"run_info"`
	DetectedCategory detectedCategory            `json:"detected_category"`
	Keywords         []domain.Keyword            `json:"keywords"`
	TrendsInterest   map[string][]interestSample `json:"trends_interest"`
	RisingQueries    []domain.RelatedQuery       `json:"rising_queries"`
	YouTubeVideos    []domain.VideoSignal        `json:"youtube_videos"`
	NewsArticles     []domain.NewsSignal         `json:"news_articles"`
}

// Results handles GET /api/trends/runs/:id/results.
func (h *TrendsHandler) Results(c *gin.Context) {
	runID, ok := parseRunID(c)
	if !ok {
		return
	}

	res, err := h.svc.RunResults(c.Request.Context(), runID)
	if errors.Is(err, repository.ErrRunNotFound) || errors.Is(err, service.ErrRunNotFinished) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found or no results available"})
		return
	}
	if err != nil {
		middleware.GetLogger(c).WithError(err).Error("Failed to load run results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run results"})
		return
	}

	c.JSON(http.StatusOK, NewResultsResponse(res))
}

// NewResultsResponse shapes stored results for API and CLI output.
func NewResultsResponse(res *domain.Results) ResultsResponse {
	run := res.Run
	return ResultsResponse{
		RunInfo: runInfo{
			ID:            run.ID,
			URL:           run.URL,
			Status:        run.Status,
			Notes:         run.Notes,
			ContentSource: run.ContentSource,
			StartedAt:     run.StartedAt,
			FinishedAt:    run.FinishedAt,
		},
		DetectedCategory: detectedCategory{
			Name:       run.DetectedCategoryName,
			TrendsID:   run.DetectedCategoryID,
			YouTubeID:  run.ExternalCategoryID,
			Confidence: run.CategoryConfidence,
		},
		Keywords:       nonNil(res.Keywords),
		TrendsInterest: groupInterest(res.Interest),
		RisingQueries:  nonNil(res.RisingQueries),
		YouTubeVideos:  nonNil(res.Videos),
		NewsArticles:   nonNil(res.News),
	}
}

// groupInterest groups the series by term, keeping each term's date order.
func groupInterest(points []domain.InterestPoint) map[string][]interestSample {
	grouped := make(map[string][]interestSample)
	for _, p := range points {
		grouped[p.Term] = append(grouped[p.Term], interestSample{Date: p.Date, Interest: p.Interest})
	}
	return grouped
}

// nonNil makes empty sections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Categories handles GET /api/trends/categories.
func (h *TrendsHandler) Categories(c *gin.Context) {
	categories := h.svc.Categories()
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}

func parseRunID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid run id"})
		return 0, false
	}
	return uint(id), true
}
