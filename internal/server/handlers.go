package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"pix-checkout/internal/validation"
)

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"service":   s.opts.ServiceName,
	}
	if s.opts.Database != nil {
		body["database"] = s.opts.Database.Health(c.Request.Context())
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "API funcionando!",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"environment": s.opts.Env,
	})
}

// POST /api/checkout
func (s *Server) handleCheckout(c *gin.Context) {
	body, err := decodeBody(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Corpo da requisição muito grande"})
			return
		}
		rule, msg := "json", "JSON inválido"
		if c.ContentType() == binding.MIMEPOSTForm {
			rule, msg = "form", "Formulário inválido"
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   invalidInputMessage,
			"details": []validation.Violation{{Field: "body", Rule: rule, Message: msg}},
		})
		return
	}

	res, err := s.svc.Checkout(c.Request.Context(), body)
	if err != nil {
		s.writeError(c, err, checkoutMessages)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/payment/check/:pixId
func (s *Server) handleCheckPayment(c *gin.Context) {
	res, err := s.svc.CheckPayment(c.Request.Context(), c.Param("pixId"))
	if err != nil {
		s.writeError(c, err, checkMessages)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/payment/simulate/:pixId, development helper
func (s *Server) handleSimulatePayment(c *gin.Context) {
	res, err := s.svc.SimulatePayment(c.Request.Context(), c.Param("pixId"))
	if err != nil {
		s.writeError(c, err, checkMessages)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/billing/:id
func (s *Server) handleGetBilling(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}
	res, err := s.svc.GetBilling(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err, checkMessages)
		return
	}
	c.JSON(http.StatusOK, res)
}

// decodeBody reads a JSON or form-encoded request body into a generic value
// for validation. Other content types and an empty body yield an empty object.
func decodeBody(c *gin.Context) (any, error) {
	switch c.ContentType() {
	case binding.MIMEJSON:
		return decodeJSON(c.Request.Body)
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		body := make(map[string]any, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) == 1 {
				body[key] = values[0]
			} else {
				body[key] = values
			}
		}
		return body, nil
	default:
		return map[string]any{}, nil
	}
}

var errTrailingData = errors.New("unexpected data after JSON value")

func decodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	var body any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, errTrailingData
	}
	return body, nil
}
