// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"bytes"
	"testing"

	"github.com/karakuri-works/Karakuri/app/dto"
	businessflow "github.com/karakuri-works/Karakuri/business_flow"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	testingutil "github.com/karakuri-works/Karakuri/testing"
	"github.com/karakuri-works/Karakuri/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newMachineFlow(env *flowEnv) businessflow.MachineFlow {
	return businessflow.NewMachineFlow(env.machineRepo, env.categoryRepo, env.auditRepo, env.allocatorFlow)
}

func TestMachineFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		env := newFlowEnv(testDB)
		flow := newMachineFlow(env)
		ctx := testingutil.CreateTestContext()

		category, err := env.fixtures.CreateTestCategory("Extruders", "extr")
		require.NoError(t, err)
		_, err = env.fixtures.CreateTestSequenceConfig(category.ID, nil, "EXT", "{category}-{sequence}", 1)
		require.NoError(t, err)

		t.Run("CreateAllocatesIdentifier", func(t *testing.T) {
			res, err := flow.Create(ctx, &dto.CreateMachineRequest{
				Name:         "Twin Screw Extruder",
				CategoryUUID: category.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "EXTR-001", res.MachineSequence)
			assert.Equal(t, models.MachineStatusActive, res.Status)

			res, err = flow.Create(ctx, &dto.CreateMachineRequest{
				Name:         "Single Screw Extruder",
				CategoryUUID: category.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "EXTR-002", res.MachineSequence)
		})

		t.Run("CreateWithoutConfig", func(t *testing.T) {
			bare, err := env.fixtures.CreateTestCategory("Bare", "bare")
			require.NoError(t, err)

			_, err = flow.Create(ctx, &dto.CreateMachineRequest{
				Name:         "Orphan Machine",
				CategoryUUID: bare.UUID.String(),
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSequenceConfigNotFound(err))
		})

		t.Run("UpdateNeverTouchesIdentifier", func(t *testing.T) {
			created, err := flow.Create(ctx, &dto.CreateMachineRequest{
				Name:         "Pelletizer",
				CategoryUUID: category.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)

			updated, err := flow.Update(ctx, created.UUID, &dto.UpdateMachineRequest{
				Name:   utils.ToPtr("Pelletizer Mk2"),
				Status: utils.ToPtr(models.MachineStatusDraft),
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "Pelletizer Mk2", updated.Name)
			assert.Equal(t, models.MachineStatusDraft, updated.Status)
			assert.Equal(t, created.MachineSequence, updated.MachineSequence)
		})

		t.Run("DeleteFreesIdentifier", func(t *testing.T) {
			created, err := flow.Create(ctx, &dto.CreateMachineRequest{
				Name:         "Granulator",
				CategoryUUID: category.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)

			require.NoError(t, flow.Delete(ctx, created.UUID, testMetadata()))

			taken, err := env.machineRepo.ExistsLiveByIdentifier(ctx, created.MachineSequence)
			require.NoError(t, err)
			assert.False(t, taken)

			// A second delete reports not found
			err = flow.Delete(ctx, created.UUID, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMachineNotFound(err))
		})

		t.Run("ListFiltersByStatus", func(t *testing.T) {
			status := models.MachineStatusDraft
			res, err := flow.List(ctx, 1, 20, &status)
			require.NoError(t, err)
			require.NotEmpty(t, res.Items)
			for _, item := range res.Items {
				assert.Equal(t, models.MachineStatusDraft, item.Status)
			}
		})

		t.Run("ExportXLSX", func(t *testing.T) {
			data, err := flow.ExportXLSX(ctx)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			f, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer f.Close()

			rows, err := f.GetRows("Machines")
			require.NoError(t, err)
			require.NotEmpty(t, rows)
			assert.Contains(t, rows[0], "Identifier")
			assert.Greater(t, len(rows), 1)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSalesOrderFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		env := newFlowEnv(testDB)
		machineFlow := newMachineFlow(env)
		orderRepo := repository.NewSalesOrderRepository(testDB.DB)
		flow := businessflow.NewSalesOrderFlow(orderRepo, env.machineRepo, env.auditRepo)
		ctx := testingutil.CreateTestContext()

		category, err := env.fixtures.CreateTestCategory("Cranes", "crane")
		require.NoError(t, err)
		_, err = env.fixtures.CreateTestSequenceConfig(category.ID, nil, "CRN", "{category}-{sequence}", 1)
		require.NoError(t, err)

		machine, err := machineFlow.Create(ctx, &dto.CreateMachineRequest{
			Name:         "Tower Crane",
			CategoryUUID: category.UUID.String(),
		}, testMetadata())
		require.NoError(t, err)

		t.Run("Create", func(t *testing.T) {
			res, err := flow.Create(ctx, &dto.CreateSalesOrderRequest{
				OrderNumber:  "SO-2026-1001",
				MachineUUID:  machine.UUID,
				CustomerName: "Acme Fabrication",
				Amount:       2500000,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "SO-2026-1001", res.OrderNumber)
			assert.Equal(t, "USD", res.Currency)
			assert.Equal(t, models.SalesOrderStatusDraft, res.Status)
		})

		t.Run("DuplicateOrderNumber", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateSalesOrderRequest{
				OrderNumber:  "SO-2026-1001",
				MachineUUID:  machine.UUID,
				CustomerName: "Acme Fabrication",
				Amount:       100,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsOrderNumberAlreadyExists(err))
		})

		t.Run("UnknownMachine", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateSalesOrderRequest{
				OrderNumber:  "SO-2026-1002",
				MachineUUID:  "22222222-2222-2222-2222-222222222222",
				CustomerName: "Acme Fabrication",
				Amount:       100,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsMachineNotFound(err))
		})

		t.Run("GetAndList", func(t *testing.T) {
			created, err := flow.Create(ctx, &dto.CreateSalesOrderRequest{
				OrderNumber:  "SO-2026-1003",
				MachineUUID:  machine.UUID,
				CustomerName: "Beta Industries",
				Amount:       990000,
			}, testMetadata())
			require.NoError(t, err)

			got, err := flow.Get(ctx, created.UUID)
			require.NoError(t, err)
			assert.Equal(t, created.OrderNumber, got.OrderNumber)

			res, err := flow.List(ctx, 1, 20, nil)
			require.NoError(t, err)
			assert.Len(t, res.Items, 2)
			assert.Equal(t, int64(2), res.Total)
		})

		return nil
	})
	require.NoError(t, err)
}
