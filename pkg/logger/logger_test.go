package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEnv(t *testing.T) {
	tests := []struct {
		raw  string
		want Env
	}{
		{raw: "prod", want: EnvProd},
		{raw: "Production", want: EnvProd},
		{raw: "stage", want: EnvStage},
		{raw: "staging", want: EnvStage},
		{raw: "dev", want: EnvDev},
		{raw: "", want: EnvDev},
		{raw: "garbage", want: EnvDev},
	}

	for _, tt := range tests {
		t.Run("env "+tt.raw, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.raw)
			assert.Equal(t, tt.want, DetectEnv())
		})
	}
}

func TestEnsureInstanceID(t *testing.T) {
	assert.Equal(t, "given", ensureInstanceID("given"))

	generated := ensureInstanceID("")
	assert.NotEmpty(t, generated)
	assert.NotEqual(t, generated, ensureInstanceID(""), "generated IDs must differ")
}

func TestInitAndL(t *testing.T) {
	Init(Config{Service: "push-service", Env: EnvDev, Backend: BackendStd})
	require.NotNil(t, L())

	Init(Config{Service: "push-service", Env: EnvProd, Backend: BackendZap})
	require.NotNil(t, L())
}
