// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"

	"github.com/karakuri-works/Karakuri/app/dto"
	businessflow "github.com/karakuri-works/Karakuri/business_flow"
	"github.com/karakuri-works/Karakuri/repository"
	testingutil "github.com/karakuri-works/Karakuri/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowEnv struct {
	fixtures      *testingutil.TestFixtures
	configRepo    repository.SequenceConfigRepository
	machineRepo   repository.MachineRepository
	categoryRepo  repository.CategoryRepository
	auditRepo     repository.AuditLogRepository
	allocatorFlow businessflow.SequenceAllocatorFlow
	reformatFlow  businessflow.SequenceReformatFlow
	configFlow    businessflow.SequenceConfigFlow
}

func newFlowEnv(testDB *testingutil.TestDB) *flowEnv {
	configRepo := repository.NewSequenceConfigRepository(testDB.DB)
	machineRepo := repository.NewMachineRepository(testDB.DB)
	categoryRepo := repository.NewCategoryRepository(testDB.DB)
	auditRepo := repository.NewAuditLogRepository(testDB.DB)

	allocatorFlow := businessflow.NewSequenceAllocatorFlow(configRepo, machineRepo, categoryRepo, auditRepo, nil, nil)
	reformatFlow := businessflow.NewSequenceReformatFlow(machineRepo, categoryRepo, auditRepo)
	configFlow := businessflow.NewSequenceConfigFlow(configRepo, categoryRepo, auditRepo, reformatFlow)

	return &flowEnv{
		fixtures:      testingutil.NewTestFixtures(testDB),
		configRepo:    configRepo,
		machineRepo:   machineRepo,
		categoryRepo:  categoryRepo,
		auditRepo:     auditRepo,
		allocatorFlow: allocatorFlow,
		reformatFlow:  reformatFlow,
		configFlow:    configFlow,
	}
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "go-test")
}

func TestSequenceAllocatorFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("AllocatesFirstIdentifier", func(t *testing.T) {
			category, err := env.fixtures.CreateTestCategory("CNC Machines", "cnc")
			require.NoError(t, err)
			_, err = env.fixtures.CreateTestSequenceConfig(category.ID, nil, "CNC", "{category}-{sequence}", 1)
			require.NoError(t, err)

			allocation, err := env.allocatorFlow.AllocateForScope(ctx, category.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, "CNC-001", allocation.Identifier)
			assert.Equal(t, int64(1), allocation.Number)

			allocation, err = env.allocatorFlow.AllocateForScope(ctx, category.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, "CNC-002", allocation.Identifier)
			assert.Equal(t, int64(2), allocation.Number)
		})

		t.Run("CollisionsBurnNumbers", func(t *testing.T) {
			category, err := env.fixtures.CreateTestCategory("Lathes", "lathe")
			require.NoError(t, err)
			cfg, err := env.fixtures.CreateTestSequenceConfig(category.ID, nil, "LTH", "{category}-{sequence}", 5)
			require.NoError(t, err)

			// Numbers 5 and 6 are already taken by live machines
			_, err = env.fixtures.CreateTestMachine(category.ID, nil, "LATHE-005")
			require.NoError(t, err)
			_, err = env.fixtures.CreateTestMachine(category.ID, nil, "LATHE-006")
			require.NoError(t, err)

			allocation, err := env.allocatorFlow.AllocateForScope(ctx, category.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, "LATHE-007", allocation.Identifier)
			assert.Equal(t, int64(7), allocation.Number)

			// Burned numbers stay burned: the counter sits past them
			reloaded, err := env.configRepo.ByID(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(7), reloaded.CurrentSequence)
		})

		t.Run("FallbackConfigRendersRequestedSlugs", func(t *testing.T) {
			category, err := env.fixtures.CreateTestCategory("Presses", "press")
			require.NoError(t, err)
			subcategory, err := env.fixtures.CreateTestSubcategory(category, "Hydraulic", "hyd")
			require.NoError(t, err)
			// Only a category-wide config exists
			_, err = env.fixtures.CreateTestSequenceConfig(category.ID, nil, "PRS", "{category}-{subcategory}-{sequence}", 1)
			require.NoError(t, err)

			allocation, err := env.allocatorFlow.AllocateForScope(ctx, category.ID, &subcategory.ID)
			require.NoError(t, err)
			assert.Equal(t, "PRESS-HYD-001", allocation.Identifier)

			// The same template collapses the empty subcategory for the
			// category-wide scope
			allocation, err = env.allocatorFlow.AllocateForScope(ctx, category.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, "PRESS-002", allocation.Identifier)
		})

		t.Run("NoConfigForScope", func(t *testing.T) {
			category, err := env.fixtures.CreateTestCategory("Unconfigured", "unconf")
			require.NoError(t, err)

			_, err = env.allocatorFlow.AllocateForScope(ctx, category.ID, nil)
			require.Error(t, err)
			assert.True(t, businessflow.IsSequenceConfigNotFound(err))
		})

		t.Run("GenerateValidatesScope", func(t *testing.T) {
			category, err := env.fixtures.CreateTestCategory("Routers", "router")
			require.NoError(t, err)
			otherParent, err := env.fixtures.CreateTestCategory("Other", "other")
			require.NoError(t, err)
			orphan, err := env.fixtures.CreateTestSubcategory(otherParent, "Stray", "stray")
			require.NoError(t, err)
			_, err = env.fixtures.CreateTestSequenceConfig(category.ID, nil, "RTR", "{category}-{sequence}", 1)
			require.NoError(t, err)

			// Unknown category
			_, err = env.allocatorFlow.Generate(ctx, &dto.GenerateSequenceRequest{
				CategoryUUID: "11111111-1111-1111-1111-111111111111",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsCategoryNotFound(err))

			// Subcategory under a different parent
			orphanUUID := orphan.UUID.String()
			_, err = env.allocatorFlow.Generate(ctx, &dto.GenerateSequenceRequest{
				CategoryUUID:    category.UUID.String(),
				SubcategoryUUID: &orphanUUID,
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsSubcategoryMismatch(err))

			// Happy path returns the config handle alongside the identifier
			res, err := env.allocatorFlow.Generate(ctx, &dto.GenerateSequenceRequest{
				CategoryUUID: category.UUID.String(),
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "ROUTER-001", res.Identifier)
			assert.NotEmpty(t, res.ConfigUUID)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSequenceConfigFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := env.fixtures.CreateTestCategory("Robots", "robot")
		require.NoError(t, err)
		subcategory, err := env.fixtures.CreateTestSubcategory(category, "Welding", "weld")
		require.NoError(t, err)

		t.Run("CreateStartsCounterBelowStart", func(t *testing.T) {
			start := int64(100)
			res, err := env.configFlow.Create(ctx, &dto.CreateSequenceConfigRequest{
				CategoryUUID:   category.UUID.String(),
				Prefix:         "ROB",
				Template:       "{category}-{sequence}",
				StartingNumber: &start,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, int64(100), res.StartingNumber)
			assert.Equal(t, int64(99), res.CurrentSequence)
		})

		t.Run("CreateDuplicateScope", func(t *testing.T) {
			_, err := env.configFlow.Create(ctx, &dto.CreateSequenceConfigRequest{
				CategoryUUID: category.UUID.String(),
				Prefix:       "ROB",
				Template:     "{category}-{sequence}",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsDuplicateSequenceConfig(err))

			// A dedicated subcategory config is not a duplicate of the
			// category-wide one
			subUUID := subcategory.UUID.String()
			_, err = env.configFlow.Create(ctx, &dto.CreateSequenceConfigRequest{
				CategoryUUID:    category.UUID.String(),
				SubcategoryUUID: &subUUID,
				Prefix:          "WLD",
				Template:        "{category}-{subcategory}-{sequence}",
			}, testMetadata())
			require.NoError(t, err)
		})

		t.Run("CreateRejectsBadTemplate", func(t *testing.T) {
			other, err := env.fixtures.CreateTestCategory("Mills", "mill")
			require.NoError(t, err)

			_, err = env.configFlow.Create(ctx, &dto.CreateSequenceConfigRequest{
				CategoryUUID: other.UUID.String(),
				Prefix:       "MIL",
				Template:     "{category}-no-number",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidTemplate(err))

			_, err = env.configFlow.Create(ctx, &dto.CreateSequenceConfigRequest{
				CategoryUUID: other.UUID.String(),
				Prefix:       "bad prefix",
				Template:     "{category}-{sequence}",
			}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPrefix(err))
		})

		t.Run("UpdateTemplateOnlyKeepsCounter", func(t *testing.T) {
			other, err := env.fixtures.CreateTestCategory("Ovens", "oven")
			require.NoError(t, err)
			cfg, err := env.fixtures.CreateTestSequenceConfig(other.ID, nil, "OVN", "{category}-{sequence}", 1)
			require.NoError(t, err)

			// Advance the counter a bit
			_, err = env.allocatorFlow.AllocateForScope(ctx, other.ID, nil)
			require.NoError(t, err)

			newTemplate := "O-{category}-{sequence}"
			res, err := env.configFlow.Update(ctx, cfg.UUID.String(), &dto.UpdateSequenceConfigRequest{
				Template: &newTemplate,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, newTemplate, res.Config.Template)
			assert.Equal(t, int64(1), res.Config.CurrentSequence)
			assert.Nil(t, res.Reformat)
		})

		t.Run("UpdateStartingNumberRewindsCounter", func(t *testing.T) {
			other, err := env.fixtures.CreateTestCategory("Boilers", "boiler")
			require.NoError(t, err)
			cfg, err := env.fixtures.CreateTestSequenceConfig(other.ID, nil, "BLR", "{category}-{sequence}", 1)
			require.NoError(t, err)

			start := int64(50)
			res, err := env.configFlow.Update(ctx, cfg.UUID.String(), &dto.UpdateSequenceConfigRequest{
				StartingNumber: &start,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, int64(50), res.Config.StartingNumber)
			assert.Equal(t, int64(49), res.Config.CurrentSequence)

			allocation, err := env.allocatorFlow.AllocateForScope(ctx, other.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(50), allocation.Number)
		})

		t.Run("UpdateRequiresAField", func(t *testing.T) {
			cfg, err := env.configRepo.ByScope(ctx, category.ID, nil)
			require.NoError(t, err)

			_, err = env.configFlow.Update(ctx, cfg.UUID.String(), &dto.UpdateSequenceConfigRequest{}, testMetadata())
			require.Error(t, err)
			assert.True(t, businessflow.IsConfigUpdateRequired(err))
		})

		t.Run("Reset", func(t *testing.T) {
			other, err := env.fixtures.CreateTestCategory("Chillers", "chill")
			require.NoError(t, err)
			cfg, err := env.fixtures.CreateTestSequenceConfig(other.ID, nil, "CHL", "{category}-{sequence}", 1)
			require.NoError(t, err)
			_, err = env.allocatorFlow.AllocateForScope(ctx, other.ID, nil)
			require.NoError(t, err)

			res, err := env.configFlow.Reset(ctx, cfg.UUID.String(), &dto.ResetSequenceConfigRequest{StartingNumber: 1}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, int64(0), res.CurrentSequence)

			// No machine claimed CHILL-001, so the rewound counter reissues it
			allocation, err := env.allocatorFlow.AllocateForScope(ctx, other.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, int64(1), allocation.Number)
			assert.Equal(t, "CHILL-001", allocation.Identifier)
		})

		t.Run("DeleteAndGet", func(t *testing.T) {
			other, err := env.fixtures.CreateTestCategory("Fans", "fan")
			require.NoError(t, err)
			cfg, err := env.fixtures.CreateTestSequenceConfig(other.ID, nil, "FAN", "{category}-{sequence}", 1)
			require.NoError(t, err)

			got, err := env.configFlow.Get(ctx, cfg.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, cfg.UUID.String(), got.UUID)

			require.NoError(t, env.configFlow.Delete(ctx, cfg.UUID.String(), testMetadata()))

			_, err = env.configFlow.Get(ctx, cfg.UUID.String())
			require.Error(t, err)
			assert.True(t, businessflow.IsSequenceConfigNotFound(err))
		})

		t.Run("ListValidatesPagination", func(t *testing.T) {
			_, err := env.configFlow.List(ctx, 0, 20)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPage(err))

			_, err = env.configFlow.List(ctx, 1, 500)
			require.Error(t, err)
			assert.True(t, businessflow.IsInvalidPageSize(err))

			res, err := env.configFlow.List(ctx, 1, 20)
			require.NoError(t, err)
			assert.NotEmpty(t, res.Items)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestSequenceReformatFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		env := newFlowEnv(testDB)
		ctx := testingutil.CreateTestContext()

		category, err := env.fixtures.CreateTestCategory("Grinders", "grinder")
		require.NoError(t, err)
		cfg, err := env.fixtures.CreateTestSequenceConfig(category.ID, nil, "GRD", "{category}-{sequence}", 1)
		require.NoError(t, err)

		m1, err := env.fixtures.CreateTestMachine(category.ID, nil, "GRINDER-001")
		require.NoError(t, err)
		m2, err := env.fixtures.CreateTestMachine(category.ID, nil, "GRINDER-002")
		require.NoError(t, err)
		// Identifier with no recoverable number
		legacy, err := env.fixtures.CreateTestMachine(category.ID, nil, "LEGACY")
		require.NoError(t, err)

		t.Run("UpdateWithReformatRewritesScope", func(t *testing.T) {
			newTemplate := "M-{category}-{sequence}"
			res, err := env.configFlow.Update(ctx, cfg.UUID.String(), &dto.UpdateSequenceConfigRequest{
				Template: &newTemplate,
				Reformat: true,
			}, testMetadata())
			require.NoError(t, err)
			require.NotNil(t, res.Reformat)
			assert.Equal(t, 3, res.Reformat.Total)
			assert.Equal(t, 2, res.Reformat.Updated)
			assert.Equal(t, 1, res.Reformat.SkippedUndecodable)
			assert.Equal(t, 0, res.Reformat.Failed)

			reloaded, err := env.machineRepo.ByID(ctx, m1.ID)
			require.NoError(t, err)
			assert.Equal(t, "M-GRINDER-001", reloaded.MachineSequence)
			reloaded, err = env.machineRepo.ByID(ctx, m2.ID)
			require.NoError(t, err)
			assert.Equal(t, "M-GRINDER-002", reloaded.MachineSequence)

			// The undecodable identifier is left untouched
			reloaded, err = env.machineRepo.ByID(ctx, legacy.ID)
			require.NoError(t, err)
			assert.Equal(t, "LEGACY", reloaded.MachineSequence)
		})

		t.Run("SecondRunIsIdempotent", func(t *testing.T) {
			report, err := env.configFlow.Reformat(ctx, cfg.UUID.String(), testMetadata())
			require.NoError(t, err)
			assert.Equal(t, 3, report.Total)
			assert.Equal(t, 0, report.Updated)
			assert.Equal(t, 2, report.SkippedUnchanged)
			assert.Equal(t, 1, report.SkippedUndecodable)
		})

		t.Run("ScopeIsExact", func(t *testing.T) {
			subcategory, err := env.fixtures.CreateTestSubcategory(category, "Belt", "belt")
			require.NoError(t, err)
			scoped, err := env.fixtures.CreateTestMachine(category.ID, &subcategory.ID, "GRINDER-050")
			require.NoError(t, err)

			// The category-wide reformat does not touch subcategory machines
			report, err := env.configFlow.Reformat(ctx, cfg.UUID.String(), testMetadata())
			require.NoError(t, err)
			assert.Equal(t, 3, report.Total)

			reloaded, err := env.machineRepo.ByID(ctx, scoped.ID)
			require.NoError(t, err)
			assert.Equal(t, "GRINDER-050", reloaded.MachineSequence)
		})

		t.Run("PaddingChangeCountsAsUpdate", func(t *testing.T) {
			other, err := env.fixtures.CreateTestCategory("Welders", "welder")
			require.NoError(t, err)
			wideCfg, err := env.fixtures.CreateTestSequenceConfig(other.ID, nil, "WLD", "{category}-{sequence}", 1)
			require.NoError(t, err)
			wide, err := env.fixtures.CreateTestMachine(other.ID, nil, "WELDER-0007")
			require.NoError(t, err)

			// Old identifiers carried four-digit padding; the heuristic
			// decoder still recovers the number against the current template
			report, err := env.reformatFlow.ReformatScope(ctx, wideCfg, wideCfg.Template, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, 1, report.Updated)

			reloaded, err := env.machineRepo.ByID(ctx, wide.ID)
			require.NoError(t, err)
			assert.Equal(t, "WELDER-007", reloaded.MachineSequence)
		})

		return nil
	})
	require.NoError(t, err)
}
