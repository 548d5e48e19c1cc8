package repository

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Репозитории и миграция живут в разных файлах и легко расходятся:
// колонка, которой нет в DDL, роняет первый же запрос в продакшене.
// Тест сверяет списки колонок репозиториев со схемой.

func tableColumns(t *testing.T, ddl, table string) map[string]struct{} {
	t.Helper()

	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + `\s*\((.+?)\);`)
	match := re.FindStringSubmatch(ddl)
	require.NotNil(t, match, "table %s not found in migration", table)

	columns := make(map[string]struct{})
	for _, line := range strings.Split(match[1], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		columns[strings.Fields(line)[0]] = struct{}{}
	}
	return columns
}

func TestRepositoryColumnsMatchSchema(t *testing.T) {
	raw, err := os.ReadFile("../../migrations/0001_init.sql")
	require.NoError(t, err)
	ddl := string(raw)

	tests := []struct {
		table   string
		columns string
	}{
		{"pending_payments", pendingPaymentColumns},
		{"confirmed_bookings", confirmedBookingColumns},
		{"doctors", "id, name, specialty, contact, created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			defined := tableColumns(t, ddl, tt.table)
			for _, column := range strings.Split(tt.columns, ",") {
				column = strings.TrimSpace(column)
				_, ok := defined[column]
				assert.True(t, ok, "column %q is not defined in %s DDL", column, tt.table)
			}
		})
	}
}
