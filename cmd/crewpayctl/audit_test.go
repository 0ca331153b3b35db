package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"crewpay/internal/models"
	"crewpay/internal/repositories/memory"
	"crewpay/internal/services/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWithBareRelease(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	releasedAt := time.Now().Add(-time.Hour)
	require.NoError(t, store.Jobs().Create(context.Background(), &models.Job{
		PosterID: 10, ContractorID: 20,
		Status:        models.JobStatusCompleted,
		PayoutStatus:  models.PayoutStatusReleased,
		PaymentStatus: models.PaymentStatusEscrowed,
		EscrowStatus:  models.EscrowStatusReleased,
		AmountCents:   10000,
		Currency:      "USD",
		ReleasedAt:    &releasedAt,
	}))
	return store
}

func openMemory(store *memory.Store) opener {
	return func() (*audit.Auditor, func(), error) {
		return audit.NewAuditor(store, models.FeeSchedule{PlatformFeeBps: 1000}, nil), func() {}, nil
	}
}

func TestAuditCmd_JSONReport(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(openMemory(storeWithBareRelease(t)), &out)
	cmd.SetArgs([]string{"audit", "--take", "10"})
	require.NoError(t, cmd.Execute())

	var report audit.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 10, report.Options.Take)
	assert.Equal(t, 1, report.Summary.JobsScanned)
	require.NotEmpty(t, report.Violations)
	assert.Equal(t, audit.CodeLedgerMissing, report.Violations[0].Code)
}

func TestAuditCmd_FailOnCritical(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(openMemory(storeWithBareRelease(t)), &out)
	cmd.SetArgs([]string{"audit", "--fail-on-critical", "--format", "text"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, errCriticalFound)
	assert.Contains(t, out.String(), audit.CodeLedgerMissing)
}

func TestAuditCmd_CleanStorePasses(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(openMemory(memory.NewStore()), &out)
	cmd.SetArgs([]string{"audit", "--fail-on-critical", "--format", "text"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "scanned 0 jobs")
}

func TestAuditCmd_RejectsUnknownFormat(t *testing.T) {
	cmd := newRootCmd(openMemory(memory.NewStore()), &bytes.Buffer{})
	cmd.SetArgs([]string{"audit", "--format", "xml"})
	assert.Error(t, cmd.Execute())
}
