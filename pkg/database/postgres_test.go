package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-fees-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "fees", Password: "secret", Name: "school", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=fees password=secret dbname=school sslmode=disable", dsn)
}
