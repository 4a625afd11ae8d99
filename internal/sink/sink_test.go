package sink

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markusj1201/SoHa-Priorities/internal/config"
	"github.com/markusj1201/SoHa-Priorities/internal/model"
	"github.com/markusj1201/SoHa-Priorities/internal/tabular"
)

var calc = time.Date(2026, 10, 19, 6, 0, 0, 0, time.Local)

func sampleRows() []model.PriorityRow {
	it := model.PriorityItem{
		WellName: "SMITH 1H", CorpID: "C1", FacilityID: "F1", Area: "East", Route: "R1",
		Latitude: 31.5, Longitude: math.NaN(),
		PriorityType: model.TypeDeferment, SeverityLevel: 2,
		Description:            "Top 25% deferring wells: ",
		Coding:                 model.Coding{Action: "Engineering Review"},
		GasProductionYesterday: 80, CleanAverageGas: 120,
	}
	return []model.PriorityRow{{PriorityItem: it, Grouper: model.GroupEngineering, CalcDate: calc}}
}

func TestDebugTable(t *testing.T) {
	tbl := DebugTable(sampleRows())
	assert.Equal(t, []string{
		"Well_Name", "Corp_ID", "Facility_ID", "Area", "Route", "Latitude", "Longitude",
		"Priority", "Priority_Level", "Description", "Assigned_To",
		"Choke_Status_Created_By", "Choke_Status_Date", "Choke_Status_Type", "Choke_Status_Action",
		"Choke_Status_Comments", "Yesterday_Gas_Production", "Clean_Average_Gas", "Grouper", "Calc_Date",
	}, tbl.Names())
	require.Equal(t, 1, tbl.Len())

	row := storageRows(tbl)[0]
	assert.Nil(t, row[6], "NaN longitude is NULL")
	assert.Nil(t, row[10], "no assignee is NULL")
	assert.Nil(t, row[12], "zero coding date is NULL")
	assert.Equal(t, int64(2), row[8])
	assert.Equal(t, "Engineering", row[18])
	assert.Equal(t, "2026-10-19 06:00:00", row[19])
}

func TestFinalTable(t *testing.T) {
	final := []model.FinalRow{{
		FacilityKey: "F1", SiteName: "SMITH 1H", LocationID: "C1", PriorityLevel: 3,
		PriorityType: model.TypeFlood, DefermentGas: 40, CalcDate: "2026-10-19 06:00:00",
	}}
	tbl := FinalTable(final)
	assert.Equal(t, []string{
		"FacilityKey", "SiteName", "LocationID", "Latitude", "Longitude", "PriorityLevel", "Grouper",
		"JobTime", "Reason", "Supporting_info", "PriorityType", "DefermentGas", "Person_assigned",
		"Job_Rank", "CalcDate",
	}, tbl.Names())

	row := storageRows(tbl)[0]
	assert.Nil(t, row[6])
	assert.Nil(t, row[7])
	assert.Nil(t, row[9])
	assert.Nil(t, row[12])
	assert.Nil(t, row[13])
	assert.Equal(t, "Flood Alert", row[10])
}

func TestPostgres_Replace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`CREATE SCHEMA IF NOT EXISTS "VRP_Details"`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS "VRP_Details"."SoHa_Priorities"`)).
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE "VRP_Details"."SoHa_Priorities" ("FacilityKey" TEXT, "SiteName" TEXT`)).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"VRP_Details", "SoHa_Priorities"}, FinalTable(nil).Names()).
		WillReturnResult(1)
	mock.ExpectCommit()

	final := []model.FinalRow{{FacilityKey: "F1", SiteName: "SMITH 1H", LocationID: "C1", PriorityLevel: 1}}
	pg := NewPostgresFromPool(mock)
	require.NoError(t, pg.Write(context.Background(), FinalTable(final), "SoHa_Priorities", "VRP_Details", ModeReplace))
	pg.Close()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_WriteError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err = NewPostgresFromPool(mock).Write(context.Background(), DebugTable(nil), "Priorities_Test", "SoHa", ModeReplace)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink: write SoHa.Priorities_Test")
}

func TestPGType(t *testing.T) {
	assert.Equal(t, "TEXT", pgType(tabular.Text))
	assert.Equal(t, "DOUBLE PRECISION", pgType(tabular.Float))
	assert.Equal(t, "BIGINT", pgType(tabular.Int))
	assert.Equal(t, "TIMESTAMP", pgType(tabular.Time))
}

func TestSQLite_ReplaceAndAppend(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "priorities.db")
	lite, err := NewSQLite(dsn)
	require.NoError(t, err)
	defer lite.Close()

	ctx := context.Background()
	tbl := DebugTable(sampleRows())
	require.NoError(t, lite.Write(ctx, tbl, "Priorities_Test", "SoHa", ModeReplace))
	require.NoError(t, lite.Write(ctx, tbl, "Priorities_Test", "SoHa", ModeReplace))
	assert.Equal(t, 1, countRows(t, dsn, "SoHa_Priorities_Test"))

	require.NoError(t, lite.Write(ctx, tbl, "Priorities_Test", "SoHa", ModeAppend))
	assert.Equal(t, 2, countRows(t, dsn, "SoHa_Priorities_Test"))

	conn, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer conn.Close()
	var lon sql.NullFloat64
	var level int64
	require.NoError(t, conn.QueryRow(`SELECT "Longitude", "Priority_Level" FROM "SoHa_Priorities_Test" LIMIT 1`).Scan(&lon, &level))
	assert.False(t, lon.Valid)
	assert.Equal(t, int64(2), level)
}

func countRows(t *testing.T, dsn, table string) int {
	t.Helper()
	conn, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer conn.Close()
	var n int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "SoHa_Priorities_Test", TableName("SoHa", "Priorities_Test"))
	assert.Equal(t, "Priorities", TableName("", "Priorities"))
}

func TestOpen(t *testing.T) {
	cfg := &config.Config{Sink: config.SinkConfig{Driver: DriverNone}}
	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, Nop{}, s)
	assert.NoError(t, s.Write(context.Background(), nil, "t", "s", ModeReplace))

	cfg.Sink = config.SinkConfig{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "out.db")}
	s, err = Open(context.Background(), cfg)
	require.NoError(t, err)
	s.Close()

	cfg.Sink.Driver = "oracle"
	_, err = Open(context.Background(), cfg)
	assert.Error(t, err)
}

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(b))
	return &s3.PutObjectOutput{}, nil
}

func TestArchive_Put(t *testing.T) {
	fp := &fakePutter{}
	a := NewArchiveWithClient(fp, "ops-bucket", "soha-priorities")

	key, err := a.Put(context.Background(), FinalTable(nil), "SoHa_Priorities", "VRP_Details", calc)
	require.NoError(t, err)
	assert.Equal(t, "soha-priorities/VRP_Details/SoHa_Priorities/2026-10-19T060000.csv", key)
	require.Len(t, fp.inputs, 1)
	assert.Equal(t, "ops-bucket", *fp.inputs[0].Bucket)
	assert.Equal(t, "text/csv", *fp.inputs[0].ContentType)
	assert.True(t, bytes.HasPrefix([]byte(fp.bodies[0]), []byte("FacilityKey,SiteName")))
}

func TestArchive_KeepNeverFails(t *testing.T) {
	a := NewArchiveWithClient(&fakePutter{err: errors.New("access denied")}, "b", "p")
	a.Keep(context.Background(), DebugTable(nil), "Priorities_Test", "SoHa", calc)

	var none *Archive
	none.Keep(context.Background(), DebugTable(nil), "Priorities_Test", "SoHa", calc)

	got, err := NewArchive(context.Background(), config.ArchiveConfig{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewArchive_StaticCredentials(t *testing.T) {
	a, err := NewArchive(context.Background(), config.ArchiveConfig{
		Bucket:          "ops-bucket",
		Prefix:          "soha-priorities",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	})
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "soha-priorities/SoHa/Priorities_Test/2026-10-19T060000.csv", a.Key("SoHa", "Priorities_Test", calc))
}
