package services_test

import (
	"context"
	"testing"
	"time"

	"lendstock/internal/adapters/persistence/models"
	"lendstock/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileNormalizeCase(t *testing.T) {
	env := newTestEnv()
	svc := services.NewReconcileService(env.repos)
	ctx := context.Background()

	drifted := env.seedItem("Laptop", "Available")
	clean := env.seedItem("Camera", models.ItemStatusBorrowed)

	n, err := svc.NormalizeCase(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, models.ItemStatusAvailable, env.itemStatus(drifted.ID))
	assert.Equal(t, models.ItemStatusBorrowed, env.itemStatus(clean.ID))

	// Idempotent
	n, err = svc.NormalizeCase(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestReconcileSyncStatus(t *testing.T) {
	env := newTestEnv()
	svc := services.NewReconcileService(env.repos)
	ctx := context.Background()

	// One real loan and one stranded item with no loan behind it
	held := env.seedItem("Laptop", models.ItemStatusAvailable)
	stranded := env.seedItem("Camera", models.ItemStatusBorrowed)
	idle := env.seedItem("Drill", models.ItemStatusAvailable)

	_, err := env.loans.Create(ctx, &services.CreateLoanInput{
		Borrower: guestInput("Dana"),
		Items:    []services.LoanItemInput{{ItemID: held.ID}},
	})
	require.NoError(t, err)

	_, err = svc.SyncStatus(ctx)
	require.NoError(t, err)

	// The loan table wins: held re-marked, stranded freed, idle untouched
	assert.Equal(t, models.ItemStatusBorrowed, env.itemStatus(held.ID))
	assert.Equal(t, models.ItemStatusAvailable, env.itemStatus(stranded.ID))
	assert.Equal(t, models.ItemStatusAvailable, env.itemStatus(idle.ID))
}

func TestReconcileFixStatus(t *testing.T) {
	env := newTestEnv()
	svc := services.NewReconcileService(env.repos)
	ctx := context.Background()

	held := env.seedItem("Laptop", models.ItemStatusAvailable)
	stranded := env.seedItem("Camera", models.ItemStatusBorrowed)
	repair := env.seedItem("Projector", models.ItemStatusUnderRepair)

	_, err := env.loans.Create(ctx, &services.CreateLoanInput{
		Borrower: guestInput("Dana"),
		Items:    []services.LoanItemInput{{ItemID: held.ID}},
	})
	require.NoError(t, err)

	// Drift the held item back to available behind the loan's back
	require.NoError(t, env.repos.Items.UpdateStatus(ctx, held.ID, models.ItemStatusAvailable))

	n, err := svc.FixStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	assert.Equal(t, models.ItemStatusBorrowed, env.itemStatus(held.ID))
	assert.Equal(t, models.ItemStatusAvailable, env.itemStatus(stranded.ID))
	// Non-loan statuses are never touched by the fix sweep
	assert.Equal(t, models.ItemStatusUnderRepair, env.itemStatus(repair.ID))

	// Second pass finds nothing to fix
	n, err = svc.FixStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestReconcileMarkOverdue(t *testing.T) {
	env := newTestEnv()
	svc := services.NewReconcileService(env.repos)
	ctx := context.Background()

	late := env.seedItem("Laptop", models.ItemStatusAvailable)
	onTime := env.seedItem("Camera", models.ItemStatusAvailable)

	pastLoanDate := time.Now().AddDate(0, -2, 0)
	pastDue := time.Now().AddDate(0, -1, 0)
	lateLoan, err := env.loans.Create(ctx, &services.CreateLoanInput{
		Borrower: guestInput("Dana"),
		LoanDate: &pastLoanDate,
		DueDate:  &pastDue,
		Items:    []services.LoanItemInput{{ItemID: late.ID}},
	})
	require.NoError(t, err)

	_, err = env.loans.Create(ctx, &services.CreateLoanInput{
		Borrower: guestInput("Sam"),
		Items:    []services.LoanItemInput{{ItemID: onTime.ID}},
	})
	require.NoError(t, err)

	n, err := svc.MarkOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.Equal(t, models.LoanStatusOverdue, env.store.loans[lateLoan.ID].Status)
	assert.Equal(t, models.ItemStatusOverdue, env.itemStatus(late.ID))
	assert.Equal(t, models.ItemStatusBorrowed, env.itemStatus(onTime.ID))

	// An overdue loan still holds its items through the fix sweep
	fixed, err := svc.FixStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, fixed)
	assert.Equal(t, models.ItemStatusOverdue, env.itemStatus(late.ID))
}
