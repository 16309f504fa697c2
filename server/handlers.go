package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hookline/beforesend"
	"github.com/hookline/beforesend/event"
	"github.com/hookline/beforesend/telemetry"
)

type transformRequest struct {
	Event          json.RawMessage `json:"event"`
	BeforeSendCode string          `json:"beforeSendCode"`
	Runtime        string          `json:"runtime"`
}

type transformResponse struct {
	Success          bool            `json:"success"`
	TransformedEvent json.RawMessage `json:"transformedEvent,omitempty"`
	Error            string          `json:"error,omitempty"`
	Traceback        string          `json:"traceback,omitempty"`
}

var jsonNull = json.RawMessage("null")

func (s *Server) handleTransform(c *gin.Context) {
	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, transformResponse{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}
	// Absence only: an explicit JSON null is a present event and flows
	// through to the routine as None.
	if len(req.Event) == 0 || req.BeforeSendCode == "" {
		c.JSON(http.StatusBadRequest, transformResponse{
			Success: false,
			Error:   "Missing event or beforeSendCode",
		})
		return
	}

	eng, ok := s.engine(req.Runtime)
	if !ok {
		c.JSON(http.StatusBadRequest, transformResponse{
			Success: false,
			Error:   "Unknown runtime: " + req.Runtime,
		})
		return
	}

	ev, err := event.Decode(req.Event)
	if err != nil {
		c.JSON(http.StatusBadRequest, transformResponse{
			Success: false,
			Error:   "Invalid event JSON: " + err.Error(),
		})
		return
	}

	start := time.Now()
	out := eng.Transform(c.Request.Context(), ev, req.BeforeSendCode)
	telemetry.TransformDuration.WithLabelValues(eng.Name()).Observe(time.Since(start).Seconds())
	telemetry.TransformTotal.WithLabelValues(eng.Name(), out.Kind.String()).Inc()

	switch out.Kind {
	case beforesend.OutcomeTransformed:
		data, err := event.Encode(out.Event)
		if err != nil {
			s.log.Error("encode transformed event", zap.Error(err))
			c.JSON(http.StatusInternalServerError, transformResponse{
				Success: false,
				Error:   "Unexpected error while processing request",
			})
			return
		}
		c.JSON(http.StatusOK, transformResponse{
			Success:          true,
			TransformedEvent: data,
		})
	case beforesend.OutcomeDropped:
		c.JSON(http.StatusOK, transformResponse{
			Success:          true,
			TransformedEvent: jsonNull,
		})
	case beforesend.OutcomeLoadFailure:
		c.JSON(http.StatusBadRequest, transformResponse{
			Success: false,
			Error:   "Failed to parse beforeSend code: " + out.Diag.Message,
		})
	case beforesend.OutcomeInvocationFailure:
		c.JSON(http.StatusInternalServerError, transformResponse{
			Success:          false,
			Error:            "Transformation error: " + out.Message,
			Traceback:        out.Trace,
			TransformedEvent: jsonNull,
		})
	}
}

type validateRequest struct {
	Code    string `json:"code"`
	Runtime string `json:"runtime"`
}

type validateResponse struct {
	Valid  bool                    `json:"valid"`
	Errors []beforesend.Diagnostic `json:"errors"`
}

func (s *Server) handleValidate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, validateResponse{
			Valid:  false,
			Errors: []beforesend.Diagnostic{{Message: "Missing code parameter"}},
		})
		return
	}

	eng, ok := s.engine(req.Runtime)
	if !ok {
		c.JSON(http.StatusBadRequest, validateResponse{
			Valid:  false,
			Errors: []beforesend.Diagnostic{{Message: "Unknown runtime: " + req.Runtime}},
		})
		return
	}

	diags := eng.Validate(req.Code)
	telemetry.ValidateTotal.WithLabelValues(eng.Name(), boolLabel(len(diags) == 0)).Inc()
	if diags == nil {
		diags = []beforesend.Diagnostic{}
	}
	c.JSON(http.StatusOK, validateResponse{
		Valid:  len(diags) == 0,
		Errors: diags,
	})
}

func (s *Server) engine(name string) (beforesend.Engine, bool) {
	if name == "" {
		name = s.cfg.Engine.Default
	}
	return beforesend.Lookup(name)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
