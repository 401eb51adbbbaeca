package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pathUpsert = UpsertConfig{
	Table:        "kor.walking_path",
	Columns:      []string{"osm_id", "highway", "name"},
	ConflictKeys: []string{"osm_id"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, pathUpsert, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        "kor.walking_path",
		ConflictKeys: []string{"osm_id"},
	}, [][]any{{1, "footway"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   "kor.walking_path",
		Columns: []string{"osm_id", "highway"},
	}, [][]any{{1, "footway"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := [][]any{{int64(1), "footway", "a"}, {int64(2), "steps", nil}}
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_kor_walking_path" \(LIKE "kor"."walking_path"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_kor_walking_path"}, pathUpsert.Columns).WillReturnResult(2)
	mock.ExpectExec(`ON CONFLICT \("osm_id"\) DO UPDATE SET "highway" = EXCLUDED."highway", "name" = EXCLUDED."name"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, pathUpsert, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TEMP TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_kor_walking_path"}, pathUpsert.Columns).
		WillReturnError(errors.New("invalid geometry"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, pathUpsert, [][]any{{int64(1), "footway", "a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table for kor.walking_path")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL(t *testing.T) {
	got := upsertSQL(UpsertConfig{
		Table:        "kor.walking_path",
		Columns:      []string{"osm_id"},
		ConflictKeys: []string{"osm_id"},
	}, "tmp")
	assert.Equal(t, `INSERT INTO "kor"."walking_path" ("osm_id") SELECT "osm_id" FROM "tmp" ON CONFLICT ("osm_id") DO NOTHING`, got)
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"kor.walking_path", `"kor"."walking_path"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}
