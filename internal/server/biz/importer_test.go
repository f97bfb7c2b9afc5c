package biz

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportProductsMixedRows(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewImporterService(ImporterServiceParams{DB: database})

	csvFile := strings.Join([]string{
		"category_slug,name,price,published",
		"pumps,Gear Pump,1299.50,true",
		"pumps,,10.00,true",
		"pumps,Screw Pump,not-a-price,false",
		"valves,Ball Valve,45,false",
	}, "\n")

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO products`))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products`)).
		WithArgs("gear-pump", "pumps", "Gear Pump", "", "", "1299.50", "", true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products`)).
		WithArgs("ball-valve", "valves", "Ball Valve", "", "", "45", "", false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	report, err := svc.ImportProducts(editorContext(), strings.NewReader(csvFile))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, 3, report.Errors[0].Line)
	assert.Equal(t, 4, report.Errors[1].Line)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportProductsRequiresHeader(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewImporterService(ImporterServiceParams{DB: database})

	var vErr *ValidationError

	_, err := svc.ImportProducts(context.Background(), strings.NewReader(""))
	require.ErrorAs(t, err, &vErr)

	_, err = svc.ImportProducts(context.Background(), strings.NewReader("name,price\nPump,10"))
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "category_slug")
}

func TestImportProductsUnknownCategoryRollsBack(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewImporterService(ImporterServiceParams{DB: database})

	csvFile := "category_slug,name,price\nno-such,Pump,10.00\n"

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO products`))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO products`)).
		WithArgs("pump", "no-such", "Pump", "", "", "10.00", "", false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.ImportProducts(editorContext(), strings.NewReader(csvFile))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Reason, "no-such")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportProductsEmptyBodyIsNoOp(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewImporterService(ImporterServiceParams{DB: database})

	report, err := svc.ImportProducts(context.Background(),
		strings.NewReader("category_slug,name,price\n"))
	require.NoError(t, err)
	assert.Zero(t, report.Imported)
	assert.Zero(t, report.Failed)
}
