package handlers

import (
	"fmt"
	"net/http"

	"aidesk/internal/cache"
	"aidesk/internal/kb"
	"aidesk/internal/models"
	"aidesk/internal/rag"

	"github.com/labstack/echo/v4"
)

// IngestHandler chunks, embeds and indexes a knowledge base document
// @Summary Ingest a knowledge base document
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body models.IngestRequest true "Document to ingest"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/kb/ingest [post]
func IngestHandler(ingester *kb.Ingester) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.IngestRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: fmt.Sprintf("Invalid request body: %v", err),
			})
		}
		if req.OrgID == "" || req.Content == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "org_id and content are required",
			})
		}

		result, err := ingester.IngestDocument(c.Request().Context(), req.OrgID, req.DocID, req.Title, req.Content)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, models.IngestResponse{
			DocID:      result.DocID,
			ChunkCount: result.ChunkCount,
		})
	}
}

// GenerateHandler drafts a grounded response for an ad-hoc query.
// Identical non-debug queries are served from cache.
// @Summary Generate a grounded draft
// @Tags Knowledge
// @Accept json
// @Produce json
// @Param request body models.GenerateRequest true "Query"
// @Success 200 {object} models.RagResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/kb/generate [post]
func GenerateHandler(generator *rag.Generator, responses *cache.ResponseCache) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.GenerateRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: fmt.Sprintf("Invalid request body: %v", err),
			})
		}
		if req.OrgID == "" || req.Query == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "org_id and query are required",
			})
		}

		key := cache.Key(req.OrgID, req.Query)
		if !req.Debug {
			if cached, ok := responses.Get(key); ok {
				return c.JSON(http.StatusOK, cached)
			}
		}

		response := generator.Generate(c.Request().Context(), req.Query, req.OrgID, rag.Options{
			FromName:  req.FromName,
			AgentName: req.AgentName,
			Debug:     req.Debug,
		})

		if !req.Debug && response.Confidence > 0 {
			responses.Set(key, response)
		}

		return c.JSON(http.StatusOK, response)
	}
}
