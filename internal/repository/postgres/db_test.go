package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriverName(t *testing.T) {
	tests := map[string]string{"": "pgx", "pgx": "pgx", "postgres": "postgres", "pq": "postgres"}
	for in, want := range tests {
		got, err := driverName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := driverName("mysql")
	assert.Error(t, err)
}
