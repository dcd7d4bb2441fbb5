package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pix-checkout/internal/infrastructure/payment"
	"pix-checkout/internal/service"
	"pix-checkout/internal/validation"
)

// flowMessages holds the user-facing error texts of one endpoint.
type flowMessages struct {
	unavailable string
	rejected    string
	internal    string
}

var (
	checkoutMessages = flowMessages{
		unavailable: "Erro ao comunicar com serviço de pagamento",
		rejected:    "Erro ao criar PIX",
		internal:    "Erro interno do servidor ao processar pagamento",
	}
	checkMessages = flowMessages{
		unavailable: "Erro ao verificar status do pagamento",
		rejected:    "Erro ao verificar pagamento",
		internal:    "Erro interno do servidor",
	}
)

const invalidInputMessage = "Dados inválidos"

// writeError converts a workflow error into the JSON error envelope.
func (s *Server) writeError(c *gin.Context, err error, msgs flowMessages) {
	_ = c.Error(err)

	var (
		verr        *validation.Error
		unavailable *payment.UnavailableError
		rejected    *payment.RejectedError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidInputMessage, "details": verr.Violations})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgs.unavailable})
	case errors.As(err, &rejected):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgs.rejected, "details": rejected.Details})
	case errors.Is(err, service.ErrBillingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Cobrança não encontrada"})
	default:
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		s.internalError(c, msgs.internal, err.Error())
	}
}

func (s *Server) internalError(c *gin.Context, msg, detail string) {
	body := gin.H{"error": msg}
	if s.opts.development() {
		body["message"] = detail
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

func (s *Server) recover(c *gin.Context, recovered any) {
	s.log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("panic recovered")
	s.internalError(c, "Erro interno do servidor", fmt.Sprint(recovered))
}
