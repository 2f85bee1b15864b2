package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDebt(t *testing.T, principal float64) *DebtRelationship {
	t.Helper()
	debt, err := NewDebtRelationship(NewDebtParams{
		DebtorID:    uuid.New(),
		ReceiverID:  uuid.New(),
		Action:      ActionHarassment,
		Severity:    SeverityMedium,
		Principal:   principal,
		Description: "test obligation",
	})
	require.NoError(t, err)
	return debt
}

func TestNewDebtRelationship(t *testing.T) {
	t.Parallel()

	t.Run("starts active with remaining equal to principal", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		assert.Equal(t, DebtActive, debt.Status)
		assert.Equal(t, 50.0, debt.Principal)
		assert.Equal(t, 50.0, debt.Remaining)
		assert.Nil(t, debt.TransferredFrom)
	})

	t.Run("rejects self debt", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		_, err := NewDebtRelationship(NewDebtParams{
			DebtorID:   id,
			ReceiverID: id,
			Action:     ActionHarassment,
			Severity:   SeverityMinor,
			Principal:  10,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects non positive principal", func(t *testing.T) {
		t.Parallel()
		_, err := NewDebtRelationship(NewDebtParams{
			DebtorID:   uuid.New(),
			ReceiverID: uuid.New(),
			Action:     ActionHarassment,
			Severity:   SeverityMinor,
			Principal:  0,
		})
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestRepay(t *testing.T) {
	t.Parallel()

	t.Run("partial repayment keeps debt active", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		require.NoError(t, debt.Repay(20))
		assert.Equal(t, 30.0, debt.Remaining)
		assert.Equal(t, DebtActive, debt.Status)
	})

	t.Run("full repayment flips status to repaid", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		require.NoError(t, debt.Repay(50))
		assert.Equal(t, 0.0, debt.Remaining)
		assert.Equal(t, DebtRepaid, debt.Status)
	})

	t.Run("over repayment is rejected not clamped", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		err := debt.Repay(60)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, 50.0, debt.Remaining, "rejected repayment must not mutate")
	})

	t.Run("non positive amounts are rejected", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		assert.ErrorIs(t, debt.Repay(0), ErrInvalidAmount)
		assert.ErrorIs(t, debt.Repay(-5), ErrInvalidAmount)
	})

	t.Run("repaid debt accepts no further payment", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		require.NoError(t, debt.Repay(50))
		assert.ErrorIs(t, debt.Repay(1), ErrValidation)
	})
}

func TestTransferTo(t *testing.T) {
	t.Parallel()

	t.Run("successor carries remaining and provenance", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		require.NoError(t, debt.Repay(10))

		newDebtor := uuid.New()
		successor, err := debt.TransferTo(newDebtor)
		require.NoError(t, err)

		assert.Equal(t, DebtTransferred, debt.Status)
		assert.Equal(t, newDebtor, successor.DebtorID)
		assert.Equal(t, debt.ReceiverID, successor.ReceiverID)
		assert.Equal(t, 40.0, successor.Remaining)
		require.NotNil(t, successor.TransferredFrom)
		assert.Equal(t, debt.ID, *successor.TransferredFrom)
	})

	t.Run("transferred debt cannot transfer again", func(t *testing.T) {
		t.Parallel()
		debt := newTestDebt(t, 50)
		_, err := debt.TransferTo(uuid.New())
		require.NoError(t, err)

		_, err = debt.TransferTo(uuid.New())
		assert.ErrorIs(t, err, ErrValidation)
	})
}
