// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"sync"
	"testing"

	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	testingutil "github.com/karakuri-works/Karakuri/testing"
	"github.com/karakuri-works/Karakuri/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewCategoryRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("ByUUID", func(t *testing.T) {
			category, err := fixtures.CreateTestCategory("CNC Machines", "cnc")
			require.NoError(t, err)

			found, err := repo.ByUUID(ctx, category.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, category.ID, found.ID)
			assert.Equal(t, "cnc", found.Slug)
		})

		t.Run("ByUUIDNotFound", func(t *testing.T) {
			found, err := repo.ByUUID(ctx, "00000000-0000-0000-0000-000000000000")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("BySlug", func(t *testing.T) {
			_, err := fixtures.CreateTestCategory("Lathes", "lathe")
			require.NoError(t, err)

			found, err := repo.BySlug(ctx, "lathe")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "Lathes", found.Name)
		})

		t.Run("ListChildren", func(t *testing.T) {
			parent, err := fixtures.CreateTestCategory("Presses", "press")
			require.NoError(t, err)
			child1, err := fixtures.CreateTestSubcategory(parent, "Hydraulic", "hyd")
			require.NoError(t, err)
			child2, err := fixtures.CreateTestSubcategory(parent, "Mechanical", "mech")
			require.NoError(t, err)

			children, err := repo.ListChildren(ctx, parent.ID)
			require.NoError(t, err)
			require.Len(t, children, 2)
			ids := []uint{children[0].ID, children[1].ID}
			assert.Contains(t, ids, child1.ID)
			assert.Contains(t, ids, child2.ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSequenceConfigRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSequenceConfigRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := fixtures.CreateTestCategory("Robots", "robot")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category, "Welding Arms", "weld")
		require.NoError(t, err)

		t.Run("ByExactScope", func(t *testing.T) {
			cfg, err := fixtures.CreateTestSequenceConfig(category.ID, nil, "ROB", "{category}-{sequence}", 1)
			require.NoError(t, err)

			found, err := repo.ByExactScope(ctx, category.ID, nil)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, cfg.ID, found.ID)

			// Exact scope for the subcategory has no dedicated row
			found, err = repo.ByExactScope(ctx, category.ID, &subcategory.ID)
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByScopeFallsBackToCategory", func(t *testing.T) {
			// No dedicated subcategory config yet: scope resolution falls back
			found, err := repo.ByScope(ctx, category.ID, &subcategory.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Nil(t, found.SubcategoryID)

			// A dedicated config wins over the fallback
			dedicated, err := fixtures.CreateTestSequenceConfig(category.ID, &subcategory.ID, "WLD", "{category}-{subcategory}-{sequence}", 100)
			require.NoError(t, err)

			found, err = repo.ByScope(ctx, category.ID, &subcategory.ID)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, dedicated.ID, found.ID)
		})

		t.Run("IncrementAndGet", func(t *testing.T) {
			other, err := fixtures.CreateTestCategory("Conveyors", "conv")
			require.NoError(t, err)
			cfg, err := fixtures.CreateTestSequenceConfig(other.ID, nil, "CNV", "{category}-{sequence}", 10)
			require.NoError(t, err)
			assert.Equal(t, int64(9), cfg.CurrentSequence)

			first, err := repo.IncrementAndGet(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(10), first)

			second, err := repo.IncrementAndGet(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(11), second)
		})

		t.Run("IncrementAndGetConcurrent", func(t *testing.T) {
			other, err := fixtures.CreateTestCategory("Compressors", "comp")
			require.NoError(t, err)
			cfg, err := fixtures.CreateTestSequenceConfig(other.ID, nil, "CMP", "{category}-{sequence}", 1)
			require.NoError(t, err)

			const n = 20
			results := make(chan int64, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					v, err := repo.IncrementAndGet(ctx, cfg.ID)
					assert.NoError(t, err)
					results <- v
				}()
			}
			wg.Wait()
			close(results)

			seen := make(map[int64]bool)
			for v := range results {
				assert.False(t, seen[v], "number %d issued twice", v)
				seen[v] = true
			}
			assert.Len(t, seen, n)

			reloaded, err := repo.ByID(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(n), reloaded.CurrentSequence)
		})

		t.Run("UpdateTemplateOnlyLeavesCounter", func(t *testing.T) {
			other, err := fixtures.CreateTestCategory("Grinders", "grind")
			require.NoError(t, err)
			cfg, err := fixtures.CreateTestSequenceConfig(other.ID, nil, "GRD", "{category}-{sequence}", 1)
			require.NoError(t, err)

			_, err = repo.IncrementAndGet(ctx, cfg.ID)
			require.NoError(t, err)

			err = repo.Update(ctx, &models.SequenceConfig{ID: cfg.ID, Template: "G-{category}-{sequence}"})
			require.NoError(t, err)

			reloaded, err := repo.ByID(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, "G-{category}-{sequence}", reloaded.Template)
			assert.Equal(t, int64(1), reloaded.CurrentSequence)
		})

		t.Run("UpdateStartingNumberRewindsCounter", func(t *testing.T) {
			other, err := fixtures.CreateTestCategory("Mixers", "mix")
			require.NoError(t, err)
			cfg, err := fixtures.CreateTestSequenceConfig(other.ID, nil, "MIX", "{category}-{sequence}", 1)
			require.NoError(t, err)

			err = repo.Update(ctx, &models.SequenceConfig{ID: cfg.ID, StartingNumber: 500, CurrentSequence: 499})
			require.NoError(t, err)

			reloaded, err := repo.ByID(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(500), reloaded.StartingNumber)
			assert.Equal(t, int64(499), reloaded.CurrentSequence)

			next, err := repo.IncrementAndGet(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(500), next)
		})

		t.Run("Delete", func(t *testing.T) {
			other, err := fixtures.CreateTestCategory("Dryers", "dry")
			require.NoError(t, err)
			cfg, err := fixtures.CreateTestSequenceConfig(other.ID, nil, "DRY", "{category}-{sequence}", 1)
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, cfg.ID))

			found, err := repo.ByID(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestMachineRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewMachineRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := fixtures.CreateTestCategory("Pumps", "pump")
		require.NoError(t, err)
		subcategory, err := fixtures.CreateTestSubcategory(category, "Vacuum", "vac")
		require.NoError(t, err)

		t.Run("ExistsLiveByIdentifier", func(t *testing.T) {
			machine, err := fixtures.CreateTestMachine(category.ID, nil, "PUMP-001")
			require.NoError(t, err)

			taken, err := repo.ExistsLiveByIdentifier(ctx, "PUMP-001")
			require.NoError(t, err)
			assert.True(t, taken)

			taken, err = repo.ExistsLiveByIdentifier(ctx, "PUMP-999")
			require.NoError(t, err)
			assert.False(t, taken)

			// Soft-deleted machines leave the uniqueness universe
			require.NoError(t, repo.SoftDelete(ctx, machine.ID))
			taken, err = repo.ExistsLiveByIdentifier(ctx, "PUMP-001")
			require.NoError(t, err)
			assert.False(t, taken)
		})

		t.Run("ListLiveByScope", func(t *testing.T) {
			m1, err := fixtures.CreateTestMachine(category.ID, nil, "PUMP-010")
			require.NoError(t, err)
			m2, err := fixtures.CreateTestMachine(category.ID, &subcategory.ID, "PUMP-VAC-011")
			require.NoError(t, err)

			// nil subcategory matches machines with no subcategory, not any
			machines, err := repo.ListLiveByScope(ctx, category.ID, nil)
			require.NoError(t, err)
			require.Len(t, machines, 1)
			assert.Equal(t, m1.ID, machines[0].ID)

			machines, err = repo.ListLiveByScope(ctx, category.ID, &subcategory.ID)
			require.NoError(t, err)
			require.Len(t, machines, 1)
			assert.Equal(t, m2.ID, machines[0].ID)

			// Soft-deleted machines drop out of the scope listing
			require.NoError(t, repo.SoftDelete(ctx, m1.ID))
			machines, err = repo.ListLiveByScope(ctx, category.ID, nil)
			require.NoError(t, err)
			assert.Empty(t, machines)
		})

		t.Run("UpdateIdentifier", func(t *testing.T) {
			machine, err := fixtures.CreateTestMachine(category.ID, nil, "PUMP-020")
			require.NoError(t, err)

			require.NoError(t, repo.UpdateIdentifier(ctx, machine.ID, "P-PUMP-020"))

			reloaded, err := repo.ByID(ctx, machine.ID)
			require.NoError(t, err)
			assert.Equal(t, "P-PUMP-020", reloaded.MachineSequence)
		})

		t.Run("SoftDeleteKeepsIdentifierOnRow", func(t *testing.T) {
			machine, err := fixtures.CreateTestMachine(category.ID, nil, "PUMP-030")
			require.NoError(t, err)

			require.NoError(t, repo.SoftDelete(ctx, machine.ID))

			reloaded, err := repo.ByID(ctx, machine.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded)
			assert.Equal(t, "PUMP-030", reloaded.MachineSequence)
			assert.NotNil(t, reloaded.DeletedAt)
			assert.False(t, reloaded.IsLive())

			// ByFilter excludes soft-deleted rows
			found, err := repo.ByUUID(ctx, machine.UUID.String())
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByFilterStatus", func(t *testing.T) {
			machine, err := fixtures.CreateTestMachine(category.ID, nil, "PUMP-040")
			require.NoError(t, err)
			machine.Status = models.MachineStatusDecommissioned
			require.NoError(t, repo.Update(ctx, machine))

			status := models.MachineStatusDecommissioned
			machines, err := repo.ByFilter(ctx, models.MachineFilter{Status: &status}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, machines, 1)
			assert.Equal(t, machine.ID, machines[0].ID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSalesOrderRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewSalesOrderRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := fixtures.CreateTestCategory("Saws", "saw")
		require.NoError(t, err)
		machine, err := fixtures.CreateTestMachine(category.ID, nil, "SAW-001")
		require.NoError(t, err)

		t.Run("ByOrderNumber", func(t *testing.T) {
			order, err := fixtures.CreateTestSalesOrder(machine.ID, "SO-2026-0001")
			require.NoError(t, err)

			found, err := repo.ByOrderNumber(ctx, "SO-2026-0001")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, order.ID, found.ID)
		})

		t.Run("ByOrderNumberNotFound", func(t *testing.T) {
			found, err := repo.ByOrderNumber(ctx, "SO-0000-0000")
			assert.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ByFilterMachine", func(t *testing.T) {
			_, err := fixtures.CreateTestSalesOrder(machine.ID, "SO-2026-0002")
			require.NoError(t, err)

			orders, err := repo.ByFilter(ctx, models.SalesOrderFilter{MachineID: &machine.ID}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, orders, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestAuditLogRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewAuditLogRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		entries := []*models.AuditLog{
			{Action: models.AuditActionSequenceGenerated, Success: utils.ToPtr(true)},
			{Action: models.AuditActionSequenceGenerated, Success: utils.ToPtr(false)},
			{Action: models.AuditActionMachineCreated, Success: utils.ToPtr(true)},
		}
		for _, e := range entries {
			require.NoError(t, repo.Save(ctx, e))
		}

		t.Run("ListByAction", func(t *testing.T) {
			logs, err := repo.ListByAction(ctx, models.AuditActionSequenceGenerated, 10, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 2)
		})

		t.Run("ListFailedActions", func(t *testing.T) {
			logs, err := repo.ListFailedActions(ctx, 10, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.True(t, logs[0].IsFailed())
		})

		return nil
	})
	require.NoError(t, err)
}
