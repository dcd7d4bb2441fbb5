package service

import "errors"

var (
	ErrGatewayNotConfigured = errors.New("ABACATEPAY_API_KEY não configurada")
	ErrBillingNotFound      = errors.New("billing not found")
)
