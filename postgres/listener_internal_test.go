package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salescrm "github.com/phbpx/sales-crm"
)

func TestDecodeChange(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	ev, err := decodeChange(`{"table":"leads","op":"UPDATE","id":"7c9e6679-7425-40de-944b-e07fc1f90ae7"}`, at)
	require.NoError(t, err)
	assert.Equal(t, salescrm.ChangeEvent{
		Table: salescrm.TableLeads,
		Op:    salescrm.OpUpdate,
		ID:    "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		At:    at,
	}, ev)

	_, err = decodeChange(`not json`, at)
	assert.Error(t, err)

	_, err = decodeChange(`{"id":"x"}`, at)
	assert.Error(t, err)
}

func TestConfigURL(t *testing.T) {
	cfg := Config{User: "crm", Password: "p@ss", Host: "db:5432", Name: "crm", DisableTLS: true}
	assert.Equal(t, "postgres://crm:p%40ss@db:5432/crm?sslmode=disable&timezone=utc", cfg.URL())

	cfg.DisableTLS = false
	assert.Contains(t, cfg.URL(), "sslmode=require")
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("x"))
	assert.Equal(t, "x", *nullable("x"))
}
