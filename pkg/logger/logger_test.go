package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	SetLevel("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestUseJSON_RoutesPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	UseJSON(&buf)
	defer UseJSON(&bytes.Buffer{})

	log.Info().Str("source", "synthetic").Msg("dataset loaded")
	assert.Contains(t, buf.String(), `"source":"synthetic"`)
	assert.Contains(t, buf.String(), `"message":"dataset loaded"`)
}
