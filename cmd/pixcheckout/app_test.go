package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pix-checkout/internal/config"
	"pix-checkout/internal/infrastructure/payment"
)

func TestNewGateway(t *testing.T) {
	log := zerolog.Nop()

	t.Run("no key returns nil interface", func(t *testing.T) {
		gw, err := newGateway(config.GatewayConfig{Driver: config.GatewayAbacatePay}, log)
		require.NoError(t, err)
		assert.True(t, gw == nil)
	})

	t.Run("sandbox", func(t *testing.T) {
		gw, err := newGateway(config.GatewayConfig{Driver: config.GatewaySandbox}, log)
		require.NoError(t, err)
		assert.IsType(t, &payment.SandboxGateway{}, gw)
	})

	t.Run("abacatepay", func(t *testing.T) {
		gw, err := newGateway(config.GatewayConfig{
			Driver:  config.GatewayAbacatePay,
			APIKey:  "abc_dev_123",
			BaseURL: "https://api.abacatepay.com/v1",
		}, log)
		require.NoError(t, err)
		assert.IsType(t, &payment.AbacatePayClient{}, gw)
	})
}

func TestRootCommand(t *testing.T) {
	root := rootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "reconcile"}, names)
	assert.NotNil(t, root.RunE)
}
