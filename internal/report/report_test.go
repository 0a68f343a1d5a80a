package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"marketplace-backend/internal/billing"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/service"
)

func lease(id int64, store bool) domain.Lease {
	asset := id * 10
	l := domain.Lease{ID: id, OwnerID: 7, PaymentInterval: domain.IntervalMonthly}
	if store {
		l.StoreID = &asset
	} else {
		l.StallID = &asset
		l.PaymentInterval = domain.IntervalDaily
	}
	return l
}

func sampleMonthly() service.MonthlyReport {
	april := billing.Month{Year: 2024, Month: time.April}
	return service.MonthlyReport{
		Month: april,
		Rows: []billing.LeaseMonth{
			{Lease: lease(1, true), Month: april, Expected: decimal.NewFromInt(1000), Paid: decimal.NewFromInt(1000), Status: domain.StatusPaid},
			{Lease: lease(2, false), Month: april, Expected: decimal.NewFromInt(240000), Paid: decimal.Zero, AttendanceCount: 2, Status: domain.StatusUnpaid},
		},
		TotalExpected: decimal.NewFromInt(241000),
		TotalPaid:     decimal.NewFromInt(1000),
	}
}

func TestMonthlyXLSX(t *testing.T) {
	data, err := MonthlyXLSX(sampleMonthly())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{monthlySheet}, f.GetSheetList())
	rows, err := f.GetRows(monthlySheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, monthlyHeader, rows[0])
	assert.Equal(t, "store 10", rows[1][2])
	assert.Equal(t, "PAID", rows[1][7])
	assert.Equal(t, "stall 20", rows[2][2])
	assert.Equal(t, "2", rows[2][6])
	assert.Equal(t, "Total 2024-04", rows[3][0])
	assert.Equal(t, "241000", rows[3][4])
}

func TestMonthlyCSV(t *testing.T) {
	data, err := MonthlyCSV(sampleMonthly())
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2", "7", "stall 20", "DAILY", "240000", "0", "2", "UNPAID"}, records[2])
}

func TestDebtorsXLSX(t *testing.T) {
	debt := billing.LeaseDebt{
		Lease: lease(1, true),
		Total: decimal.NewFromInt(2000),
		Months: []billing.MonthDebt{
			{Month: billing.Month{Year: 2024, Month: time.January}, Shortfall: decimal.Zero},
			{Month: billing.Month{Year: 2024, Month: time.February}, Shortfall: decimal.NewFromInt(1000)},
			{Month: billing.Month{Year: 2024, Month: time.March}, Shortfall: decimal.NewFromInt(1000)},
		},
	}
	data, err := DebtorsXLSX([]billing.LeaseDebt{debt})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(debtorsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "7", "store 10", "2000", "2", "2024-02"}, rows[1])
}

func TestDebtorsXLSXEmpty(t *testing.T) {
	data, err := DebtorsXLSX(nil)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(debtorsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
