package service_test

import (
	"errors"
	"testing"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
	"github.com/sandip-dolai/suntechERP/internal/erp/testutil"
)

func TestMasterData_ItemAndCompanyCodes(t *testing.T) {
	env := setupEnv(t)
	admin := testutil.AdminActor()

	item, err := env.svc.Master.CreateItem(env.ctx, admin, &service.ItemRequest{Code: " ms-sheet-2 ", Name: "MS Sheet"})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Code != "MS-SHEET-2" || item.UOM != entity.DefaultUOM {
		t.Fatalf("unexpected item %+v", item)
	}
	if _, err := env.svc.Master.CreateItem(env.ctx, admin, &service.ItemRequest{Code: "MS SHEET", Name: "x"}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("bad code: expected validation error, got %v", err)
	}
	if _, err := env.svc.Master.CreateItem(env.ctx, admin, &service.ItemRequest{Code: "MS-SHEET-2", Name: "dup"}); !errors.Is(err, service.ErrConflict) {
		t.Fatalf("duplicate code: expected conflict, got %v", err)
	}

	if _, err := env.svc.Master.CreateCompany(env.ctx, admin, &service.CompanyRequest{Code: "BETA1", Code2: "3001", Name: "Beta"}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("digits in company code: expected validation error, got %v", err)
	}
	if _, err := env.svc.Master.CreateCompany(env.ctx, admin, &service.CompanyRequest{Code: "BETA", Code2: "30A", Name: "Beta"}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("non numeric code2: expected validation error, got %v", err)
	}
	if _, err := env.svc.Master.CreateCompany(env.ctx, admin, &service.CompanyRequest{Code: "beta", Code2: "3001", Name: "Beta"}); err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}

	user := testutil.DeptActor("u_design", entity.DepartmentDesign)
	if _, err := env.svc.Master.CreateItem(env.ctx, user, &service.ItemRequest{Code: "X", Name: "x"}); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("non admin: expected forbidden, got %v", err)
	}
}

func TestMasterData_DepartmentProcesses(t *testing.T) {
	env := setupEnv(t)
	admin := testutil.AdminActor()

	dp, err := env.svc.Master.CreateDepartmentProcess(env.ctx, admin, &service.CreateDepartmentProcessRequest{
		Department: entity.DepartmentDesign,
		Name:       "Drawing Approval",
	})
	if err != nil {
		t.Fatalf("CreateDepartmentProcess: %v", err)
	}
	if dp.Sequence != len(env.fx.Processes)+1 {
		t.Fatalf("sequence should append, got %d", dp.Sequence)
	}

	taken := 1
	_, err = env.svc.Master.CreateDepartmentProcess(env.ctx, admin, &service.CreateDepartmentProcessRequest{
		Department: entity.DepartmentDesign,
		Name:       "Clash",
		Sequence:   &taken,
	})
	if !errors.Is(err, service.ErrConflict) {
		t.Fatalf("sequence clash: expected conflict, got %v", err)
	}
	if _, err := env.svc.Master.CreateDepartmentProcess(env.ctx, admin, &service.CreateDepartmentProcessRequest{Department: "Finance", Name: "x"}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("unknown department: expected validation error, got %v", err)
	}

	inactive := false
	if _, err := env.svc.Master.UpdateDepartmentProcess(env.ctx, admin, dp.ID, &service.UpdateDepartmentProcessRequest{IsActive: &inactive}); err != nil {
		t.Fatalf("UpdateDepartmentProcess: %v", err)
	}
	active, err := env.svc.Master.ListDepartmentProcesses(env.ctx, true)
	if err != nil || len(active) != len(env.fx.Processes) {
		t.Fatalf("deactivated definition should be hidden: %v %d", err, len(active))
	}

	all, _ := env.svc.Master.ListDepartmentProcesses(env.ctx, false)
	ids := make([]string, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		ids = append(ids, all[i].ID)
	}
	if _, err := env.svc.Master.ReorderDepartmentProcesses(env.ctx, admin, &service.ReorderRequest{IDs: ids[:2]}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("partial reorder: expected validation error, got %v", err)
	}
	reordered, err := env.svc.Master.ReorderDepartmentProcesses(env.ctx, admin, &service.ReorderRequest{IDs: ids})
	if err != nil {
		t.Fatalf("ReorderDepartmentProcesses: %v", err)
	}
	for i, p := range reordered {
		if p.ID != ids[i] || p.Sequence != i+1 {
			t.Fatalf("position %d: got %s seq %d", i, p.ID, p.Sequence)
		}
	}
}
