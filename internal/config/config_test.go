package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SSL_TIMEOUT", "")
	t.Setenv("SSL_CURRENCY", "")
	t.Setenv("TRACE_EXPORTER", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "BDT", cfg.Gateway.Currency)
	assert.Empty(t, cfg.TraceExporter)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SSL_TIMEOUT", "3s")
	t.Setenv("TRACE_EXPORTER", "STDOUT")
	t.Setenv("SSL_SUCCESS_FRONTEND_URL", "https://shop.test/ok")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "https://shop.test/ok", cfg.Frontend.Success)
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("SSL_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, Load().Gateway.Timeout)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "**", mask("ab"))
	assert.Equal(t, "sto****", mask("store12"))
}

func TestBcryptCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4")
	assert.Equal(t, 4, Load().BcryptCost)

	t.Setenv("BCRYPT_COST", "cheap")
	assert.Equal(t, 0, Load().BcryptCost)
}
