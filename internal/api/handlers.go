package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neuroscope-selfcheck/internal/domain"
	"github.com/neuroscope-selfcheck/internal/report"
	"github.com/neuroscope-selfcheck/internal/securestore"
	"github.com/neuroscope-selfcheck/internal/session"
)

// ReportRequest is the body of POST /api/v1/report.
type ReportRequest struct {
	Answers     domain.AnswerSet         `json:"answers"`
	Progress    int                      `json:"progress"`
	Medications []domain.MedicationEntry `json:"medications"`
}

// StoreEntry is returned by GET /api/v1/store/:key.
type StoreEntry struct {
	Key    string          `json:"key"`
	Status string          `json:"status"`
	Value  json.RawMessage `json:"value,omitempty"`
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewValidationError("body", "request body too large or unreadable", nil)
	}
	return body, nil
}

func decodeBody(c *gin.Context, dst any) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return domain.NewValidationError("body", "request body is empty", nil)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.NewValidationError("body", "request body is not valid JSON", nil)
	}
	return nil
}

func storeKey(c *gin.Context) (string, error) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" || len(key) > 256 {
		return "", domain.NewValidationError("key", "key must be 1-256 characters", key)
	}
	return key, nil
}

func (s *Server) fail(c *gin.Context, message string, err error) {
	status, code := statusFor(err)
	if status == http.StatusBadRequest {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			message = vErr.Error()
		}
	}
	s.respondError(c, status, code, message, err)
}

func (s *Server) handleStoreGet(c *gin.Context) {
	key, err := storeKey(c)
	if err != nil {
		s.fail(c, "Invalid key", err)
		return
	}

	l := s.deps.Store.Get(c.Request.Context(), key)
	switch l.Status {
	case securestore.LookupFound:
		c.JSON(http.StatusOK, StoreEntry{Key: key, Status: l.Status.String(), Value: l.Value})
	case securestore.LookupUnavailable:
		s.fail(c, "Secure storage unavailable", l.Err)
	default:
		// Missing, foreign and purged entries are all absent to the caller.
		c.JSON(http.StatusNotFound, StoreEntry{Key: key, Status: l.Status.String()})
	}
}

func (s *Server) handleStoreSet(c *gin.Context) {
	key, err := storeKey(c)
	if err != nil {
		s.fail(c, "Invalid key", err)
		return
	}
	var value json.RawMessage
	if err := decodeBody(c, &value); err != nil {
		s.fail(c, "Invalid value", err)
		return
	}

	if err := s.deps.Store.Set(c.Request.Context(), key, value); err != nil {
		s.fail(c, "Failed to store value", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStoreRemove(c *gin.Context) {
	key, err := storeKey(c)
	if err != nil {
		s.fail(c, "Invalid key", err)
		return
	}
	if err := s.deps.Store.Remove(c.Request.Context(), key); err != nil {
		s.fail(c, "Failed to remove value", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleStoreMigrate(c *gin.Context) {
	key, err := storeKey(c)
	if err != nil {
		s.fail(c, "Invalid key", err)
		return
	}

	result, err := s.deps.Store.MigrateIfNeeded(c.Request.Context(), key, c.Query("legacy"))
	if result == securestore.MigrationAborted {
		s.fail(c, "Migration aborted, data left untouched", err)
		return
	}

	resp := gin.H{"key": key, "result": result}
	if err != nil {
		// The sealed copy exists; only cleanup of the legacy entry failed.
		resp["warning"] = "legacy entry could not be removed"
		s.logger.WithError(err).WithField("key", key).Warn("Legacy entry left behind after migration")
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleReport(c *gin.Context) {
	var req ReportRequest
	if err := decodeBody(c, &req); err != nil {
		s.fail(c, "Invalid report request", err)
		return
	}
	if req.Progress < 0 || req.Progress > 100 {
		s.fail(c, "Invalid report request", domain.NewValidationError("progress", "must be between 0 and 100", req.Progress))
		return
	}

	rep, err := s.deps.Reports.Build(c.Request.Context(), report.BuildInput{
		Answers:     req.Answers,
		Progress:    req.Progress,
		Medications: req.Medications,
	})
	if err != nil {
		s.fail(c, "Failed to build report", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (s *Server) handleSessionGet(c *gin.Context) {
	if err := s.deps.Sessions.Flush(c.Request.Context()); err != nil {
		s.fail(c, "Failed to write pending session", err)
		return
	}
	st, err := s.deps.Sessions.Restore(c.Request.Context())
	if err != nil {
		s.fail(c, "Failed to restore session", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// handleSessionSave writes the session. With ?autosave=true the write is debounced
// and the handler answers 202 before it happens.
func (s *Server) handleSessionSave(c *gin.Context) {
	autosave := false
	if raw := c.Query("autosave"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.fail(c, "Invalid session", domain.NewValidationError("autosave", "must be a boolean", raw))
			return
		}
		autosave = v
	}

	var st session.State
	if err := decodeBody(c, &st); err != nil {
		s.fail(c, "Invalid session", err)
		return
	}
	if autosave {
		s.deps.Sessions.SaveAsync(st)
		c.Status(http.StatusAccepted)
		return
	}
	if err := s.deps.Sessions.Save(c.Request.Context(), st); err != nil {
		s.fail(c, "Failed to save session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSessionReset(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Sessions.Reset(c.Request.Context()))
}
