package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN_FromFields(t *testing.T) {
	dsn := DSN(ClientConfig{
		Host:     "db.internal",
		Port:     5433,
		Database: "marketd",
		User:     "svc",
		Password: "pw",
		SSLMode:  "require",
	})
	assert.Equal(t, "postgres://svc:pw@db.internal:5433/marketd?sslmode=require", dsn)
}

func TestDSN_Defaults(t *testing.T) {
	dsn := DSN(ClientConfig{Host: "localhost", Database: "marketd", User: "u"})
	assert.Equal(t, "postgres://u:@localhost:5432/marketd?sslmode=disable", dsn)
}

func TestDSN_ExplicitWins(t *testing.T) {
	dsn := DSN(ClientConfig{DSN: "postgres://explicit", Host: "ignored"})
	assert.Equal(t, "postgres://explicit", dsn)
}
