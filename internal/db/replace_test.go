package db

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var priorityCols = []ColumnDef{
	{Name: "Corp_ID", Type: "TEXT"},
	{Name: "Priority_Level", Type: "BIGINT"},
}

func TestReplaceTable_NoTable(t *testing.T) {
	_, err := ReplaceTable(context.TODO(), nil, ReplaceSpec{Columns: priorityCols}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no table specified")
}

func TestReplaceTable_NoColumns(t *testing.T) {
	_, err := ReplaceTable(context.TODO(), nil, ReplaceSpec{Schema: "SoHa", Table: "Priorities_Test"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestReplaceTable_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "SoHa"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "SoHa"."Priorities_Test"`)).
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "SoHa"."Priorities_Test" ("Corp_ID" TEXT, "Priority_Level" BIGINT)`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"SoHa", "Priorities_Test"}, []string{"Corp_ID", "Priority_Level"}).
		WillReturnResult(2)
	mock.ExpectCommit()

	n, err := ReplaceTable(context.Background(), mock, ReplaceSpec{
		Schema: "SoHa", Table: "Priorities_Test", Columns: priorityCols,
	}, [][]any{{"C1", int64(1)}, {"C2", int64(3)}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTable_EmptyRowsStillRecreates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DROP TABLE IF EXISTS").WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	n, err := ReplaceTable(context.Background(), mock, ReplaceSpec{Table: "priorities", Columns: priorityCols}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTable_CopyErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE SCHEMA").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("DROP TABLE").WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec("CREATE TABLE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"VRP_Details", "SoHa_Priorities"}, []string{"Corp_ID", "Priority_Level"}).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err = ReplaceTable(context.Background(), mock, ReplaceSpec{
		Schema: "VRP_Details", Table: "SoHa_Priorities", Columns: priorityCols,
	}, [][]any{{"C1", int64(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO VRP_Details.SoHa_Priorities")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceTable_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("too many connections"))

	_, err = ReplaceTable(context.Background(), mock, ReplaceSpec{Table: "t", Columns: priorityCols}, [][]any{{"x", int64(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"SoHa.Priorities_Test", `"SoHa"."Priorities_Test"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, QuoteAndJoin([]string{"id", "name", "value"}))
}

func TestAppendTable_KeepsExistingTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "SoHa"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "SoHa"."Priorities_Test" ("Corp_ID" TEXT, "Priority_Level" BIGINT)`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"SoHa", "Priorities_Test"}, []string{"Corp_ID", "Priority_Level"}).
		WillReturnResult(1)
	mock.ExpectCommit()

	n, err := AppendTable(context.Background(), mock, ReplaceSpec{
		Schema: "SoHa", Table: "Priorities_Test", Columns: priorityCols,
	}, [][]any{{"C1", int64(1)}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
