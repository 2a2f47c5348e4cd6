package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/gin-gonic/gin"
)

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListEntries(c *gin.Context) {
	c.JSON(http.StatusOK, newEntryList(s.svc.Entries()))
}

// handleCreateEntry accepts JSON or form bodies with kind, amount, category and date.
func (s *Server) handleCreateEntry(c *gin.Context) {
	var in services.RecordInput
	if err := c.ShouldBind(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:  CodeBodyTooLarge,
			})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body", Code: CodeBadRequest})
		return
	}

	e, err := s.svc.Record(c.Request.Context(), in)
	if err != nil {
		if !core.IsValidationError(err) {
			s.logger.ErrorContext(c.Request.Context(), "Failed to record entry",
				log.FieldErrorType, log.ErrorTypeStorage,
				log.FieldError, err)
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newEntryResponse(e))
}

func (s *Server) handleTotals(c *gin.Context) {
	c.JSON(http.StatusOK, newTotalsResponse(s.svc.Totals()))
}

func (s *Server) handleSummary(c *gin.Context) {
	params, err := ParseMonthParams(c.Request.URL.Query(), s.now())
	if err != nil {
		writeError(c, err)
		return
	}

	sum, err := s.monthSummary(params)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryResponse(sum))
}

// handleExport buffers the workbook so a failure still yields a clean 500.
func (s *Server) handleExport(c *gin.Context) {
	entries := s.svc.Entries()
	totals := core.ComputeTotals(entries)

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, entries, totals); err != nil {
		s.logger.ErrorContext(c.Request.Context(), "Failed to build workbook",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		writeError(c, err)
		return
	}

	filename := fmt.Sprintf("fintrack_%s.xlsx", s.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
