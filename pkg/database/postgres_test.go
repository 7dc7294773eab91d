package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nacca-sms/nacca-sms-api/pkg/config"
)

func TestDSNQuotesValues(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "localhost", Port: 5432, User: "app", Password: "it's a secret", Name: "schooldb", SSLMode: "disable"}
	assert.Equal(t, `host='localhost' port=5432 user='app' password='it\'s a secret' dbname='schooldb' sslmode='disable'`, DSN(cfg))
}

func TestDSNEmptyPassword(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Name: "schooldb", SSLMode: "require"}
	assert.Contains(t, DSN(cfg), "password=''")
}

func TestRedactedOmitsPassword(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 6543, User: "app", Password: "hunter2", Name: "schooldb"}
	assert.Equal(t, "postgres://app@db:6543/schooldb", Redacted(cfg))
}
