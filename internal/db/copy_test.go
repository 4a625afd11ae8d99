package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopy_NoRowsIsNoop(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "Priorities_Test", []string{"Corp_ID"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = CopyFromSchema(context.Background(), nil, "SoHa", "Priorities_Test", []string{"Corp_ID"}, [][]any{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCopyFrom_Pool(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"priorities"}, []string{"Corp_ID", "Priority_Level"}).WillReturnResult(2)

	rows := [][]any{{"C1", int64(2)}, {"C2", int64(5)}}
	n, err := CopyFrom(context.Background(), mock, "priorities", []string{"Corp_ID", "Priority_Level"}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_InsideTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"VRP_Details", "SoHa_Priorities"}, []string{"FacilityKey"}).WillReturnResult(1)
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)
	n, err := CopyFromSchema(ctx, tx, "VRP_Details", "SoHa_Priorities", []string{"FacilityKey"}, [][]any{{"F1"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFromSchema_ErrorNamesTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"SoHa", "Priorities_Test"}, []string{"Corp_ID"}).
		WillReturnError(eris.New("permission denied for schema SoHa"))

	_, err = CopyFromSchema(context.Background(), mock, "SoHa", "Priorities_Test", []string{"Corp_ID"}, [][]any{{"C1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO SoHa.Priorities_Test")
	assert.Contains(t, err.Error(), "permission denied")
}
