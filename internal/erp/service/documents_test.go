package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
	"github.com/sandip-dolai/suntechERP/internal/erp/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestCreateBOM_NumberAndDuplicate(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")

	req := &service.CreateBOMRequest{
		POID: po.ID,
		Items: []service.BOMItemInput{
			{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(4)},
			{POItemID: po.Items[1].ID, Quantity: decimal.NewFromInt(1), Unit: "PCS"},
		},
	}
	bom, err := env.svc.BOM.CreateBOM(env.ctx, testutil.AdminActor(), req)
	if err != nil {
		t.Fatalf("CreateBOM: %v", err)
	}
	if bom.BOMNo != "BOM/PO-1001/0001" {
		t.Fatalf("unexpected bom_no %s", bom.BOMNo)
	}
	if len(bom.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(bom.Items))
	}
	for _, it := range bom.Items {
		if it.POItemID == po.Items[0].ID && it.Unit != "KG" {
			t.Errorf("unit should default to po item unit, got %s", it.Unit)
		}
		if it.POItemID == po.Items[1].ID && it.Unit != "PCS" {
			t.Errorf("explicit unit should win, got %s", it.Unit)
		}
	}

	_, err = env.svc.BOM.CreateBOM(env.ctx, testutil.AdminActor(), req)
	if !errors.Is(err, service.ErrDuplicateBOM) {
		t.Fatalf("expected duplicate BOM error, got %v", err)
	}
	if n := env.count(t, &entity.BOM{}, "po_id = ?", po.ID); n != 1 {
		t.Fatalf("expected exactly one bom, got %d", n)
	}
}

func TestCreateBOM_RejectsForeignPOItem(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	other := env.createPO(t, "PO-1002")

	_, err := env.svc.BOM.CreateBOM(env.ctx, testutil.AdminActor(), &service.CreateBOMRequest{
		POID:  po.ID,
		Items: []service.BOMItemInput{{POItemID: other.Items[0].ID, Quantity: decimal.NewFromInt(1)}},
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := env.count(t, &entity.BOM{}, "1 = 1"); n != 0 {
		t.Fatalf("no bom should be written, got %d", n)
	}
}

func TestCreateBOM_CancelledPO(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	if _, err := env.svc.PO.CancelPO(env.ctx, testutil.AdminActor(), po.ID); err != nil {
		t.Fatalf("CancelPO: %v", err)
	}
	_, err := env.svc.BOM.CreateBOM(env.ctx, testutil.AdminActor(), &service.CreateBOMRequest{
		POID:  po.ID,
		Items: []service.BOMItemInput{{POItemID: po.Items[0].ID, Quantity: decimal.NewFromInt(1)}},
	})
	if !errors.Is(err, service.ErrPOCancelled) {
		t.Fatalf("expected cancelled error, got %v", err)
	}
}

func TestCreateIndent_SequentialNumbersPerScope(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)
	acc := env.processFor(t, po.ID, testutil.DPAccessories)
	production := testutil.DeptActor("u_production", entity.DepartmentProduction)

	for i := 1; i <= 3; i++ {
		indent, err := env.svc.Indent.CreateIndent(env.ctx, production, indentRequest(po, raw.ID))
		if err != nil {
			t.Fatalf("CreateIndent #%d: %v", i, err)
		}
		want := fmt.Sprintf("IND/PO-1001/RAW/%04d", i)
		if indent.IndentNumber != want {
			t.Fatalf("expected %s, got %s", want, indent.IndentNumber)
		}
		if indent.CategoryCode != "RAW" || indent.Status != entity.IndentStatusOpen {
			t.Fatalf("unexpected indent %+v", indent)
		}
	}

	accIndent, err := env.svc.Indent.CreateIndent(env.ctx, production, indentRequest(po, acc.ID))
	if err != nil {
		t.Fatalf("CreateIndent ACC: %v", err)
	}
	if accIndent.IndentNumber != "IND/PO-1001/ACC/0001" {
		t.Fatalf("each category has its own sequence, got %s", accIndent.IndentNumber)
	}

	other := env.createPO(t, "PO-1002")
	otherRaw := env.processFor(t, other.ID, testutil.DPRawMaterial)
	otherIndent, err := env.svc.Indent.CreateIndent(env.ctx, production, indentRequest(other, otherRaw.ID))
	if err != nil {
		t.Fatalf("CreateIndent other po: %v", err)
	}
	if otherIndent.IndentNumber != "IND/PO-1002/RAW/0001" {
		t.Fatalf("each po has its own sequence, got %s", otherIndent.IndentNumber)
	}
}

func TestCreateIndent_ContinuesFromLatestNumber(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)

	seed := func(number string, at time.Time) {
		t.Helper()
		err := env.db.Create(&entity.Indent{
			ID:           "seed_" + fmt.Sprint(at.UnixNano()),
			IndentNumber: number,
			POID:         po.ID,
			POProcessID:  raw.ID,
			CategoryCode: "RAW",
			IndentDate:   at,
			Status:       entity.IndentStatusOpen,
			CreatedAt:    at,
		}).Error
		if err != nil {
			t.Fatalf("seed indent: %v", err)
		}
	}

	// 以最后插入的一条为准，created_at 来自应用时钟，不参与排序
	seed("IND/PO-1001/RAW/0007", time.Now().Add(time.Hour))
	for _, want := range []string{"IND/PO-1001/RAW/0008", "IND/PO-1001/RAW/0009"} {
		indent, err := env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(po, raw.ID))
		if err != nil {
			t.Fatalf("CreateIndent: %v", err)
		}
		if indent.IndentNumber != want {
			t.Fatalf("expected %s, got %s", want, indent.IndentNumber)
		}
	}

	// 无法解析的旧编号视为0
	seed("IND/PO-1001/RAW/LEGACY", time.Now().Add(-time.Hour))
	for _, want := range []string{"IND/PO-1001/RAW/0001", "IND/PO-1001/RAW/0002"} {
		indent, err := env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(po, raw.ID))
		if err != nil {
			t.Fatalf("CreateIndent after malformed: %v", err)
		}
		if indent.IndentNumber != want {
			t.Fatalf("expected %s, got %s", want, indent.IndentNumber)
		}
	}
}

func TestCreateIndent_ConcurrentNumbersUnique(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)

	const workers = 8
	var wg sync.WaitGroup
	numbers := make(chan string, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			indent, err := env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(po, raw.ID))
			if err != nil {
				errs <- err
				return
			}
			numbers <- indent.IndentNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent CreateIndent: %v", err)
	}
	seen := make(map[string]bool)
	for n := range numbers {
		if seen[n] {
			t.Fatalf("duplicate number %s", n)
		}
		seen[n] = true
	}
	for i := 1; i <= workers; i++ {
		if want := fmt.Sprintf("IND/PO-1001/RAW/%04d", i); !seen[want] {
			t.Fatalf("missing %s in %v", want, seen)
		}
	}
}

func TestCreateIndent_ProcessValidation(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	other := env.createPO(t, "PO-1002")

	marketing := env.processFor(t, po.ID, testutil.DPMarketing)
	_, err := env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(po, marketing.ID))
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("non production process: expected validation error, got %v", err)
	}

	foreign := env.processFor(t, other.ID, testutil.DPRawMaterial)
	_, err = env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(po, foreign.ID))
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("foreign process: expected validation error, got %v", err)
	}

	// 生产部门但不在领料类别内
	testutil.SeedDepartmentProcess(t, env.db, "dp_assembly", entity.DepartmentProduction, "Assembly", 20, true)
	third := env.createPO(t, "PO-1003")
	assembly := env.processFor(t, third.ID, "dp_assembly")
	_, err = env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(third, assembly.ID))
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("unmapped production process: expected validation error, got %v", err)
	}

	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)
	req := indentRequest(po, raw.ID)
	req.Items[0].RequiredQty = decimal.Zero
	if _, err := env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), req); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("zero qty: expected validation error, got %v", err)
	}

	if n := env.count(t, &entity.Indent{}, "1 = 1"); n != 0 {
		t.Fatalf("rejected requests must not write indents, got %d", n)
	}
}

func TestIndentLifecycle(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)
	acc := env.processFor(t, po.ID, testutil.DPAccessories)
	creator := testutil.DeptActor("u_production", entity.DepartmentProduction)

	indent, err := env.svc.Indent.CreateIndent(env.ctx, creator, indentRequest(po, raw.ID))
	if err != nil {
		t.Fatalf("CreateIndent: %v", err)
	}
	if indent.Items[0].UOM != "KG" {
		t.Fatalf("uom should default to po item unit, got %s", indent.Items[0].UOM)
	}

	// 换成其他类别的流程会改变编号作用域，拒绝
	accID := acc.ID
	_, err = env.svc.Indent.UpdateIndent(env.ctx, creator, indent.ID, &service.UpdateIndentRequest{POProcessID: &accID})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("category change: expected validation error, got %v", err)
	}

	// 删除唯一一行同时新增一行
	remarks := "urgent"
	updated, err := env.svc.Indent.UpdateIndent(env.ctx, creator, indent.ID, &service.UpdateIndentRequest{
		Remarks: &remarks,
		Items: []service.IndentItemInput{
			{ID: indent.Items[0].ID, Delete: true},
			{POItemID: po.Items[1].ID, RequiredQty: decimal.NewFromInt(3), UOM: "BOX"},
		},
	})
	if err != nil {
		t.Fatalf("UpdateIndent: %v", err)
	}
	if updated.Remarks != "urgent" || len(updated.Items) != 1 || updated.Items[0].POItemID != po.Items[1].ID {
		t.Fatalf("unexpected indent after update: %+v", updated)
	}
	if updated.IndentNumber != indent.IndentNumber {
		t.Fatalf("number must not change on update")
	}

	_, err = env.svc.Indent.UpdateIndent(env.ctx, creator, indent.ID, &service.UpdateIndentRequest{
		Items: []service.IndentItemInput{{ID: updated.Items[0].ID, Delete: true}},
	})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("removing last item: expected validation error, got %v", err)
	}

	marketing := testutil.DeptActor("u_marketing", entity.DepartmentMarketing)
	if _, err := env.svc.Indent.CloseIndent(env.ctx, marketing, indent.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("marketing close: expected forbidden, got %v", err)
	}

	closed, err := env.svc.Indent.CloseIndent(env.ctx, creator, indent.ID)
	if err != nil {
		t.Fatalf("CloseIndent: %v", err)
	}
	if closed.Status != entity.IndentStatusClosed || closed.ClosedAt == nil || closed.ClosedBy == nil || *closed.ClosedBy != creator.UserID {
		t.Fatalf("unexpected closed indent %+v", closed)
	}

	late := "late"
	_, err = env.svc.Indent.UpdateIndent(env.ctx, creator, indent.ID, &service.UpdateIndentRequest{
		Remarks: &late,
		Items:   []service.IndentItemInput{{ID: updated.Items[0].ID, RequiredQty: decimal.NewFromInt(99)}},
	})
	if !errors.Is(err, service.ErrIndentClosed) {
		t.Fatalf("edit closed: expected ErrIndentClosed, got %v", err)
	}
	if err := env.svc.Indent.DeleteIndent(env.ctx, testutil.AdminActor(), indent.ID); !errors.Is(err, service.ErrIndentClosed) {
		t.Fatalf("delete closed: expected ErrIndentClosed, got %v", err)
	}
	if _, err := env.svc.Indent.CloseIndent(env.ctx, creator, indent.ID); !errors.Is(err, service.ErrIndentClosed) {
		t.Fatalf("close twice: expected ErrIndentClosed, got %v", err)
	}

	after, err := env.svc.Indent.GetIndent(env.ctx, indent.ID)
	if err != nil {
		t.Fatalf("GetIndent: %v", err)
	}
	if after.Status != entity.IndentStatusClosed || after.Remarks != "urgent" || after.POProcessID != raw.ID {
		t.Fatalf("closed indent header changed: %+v", after)
	}
	if len(after.Items) != 1 || after.Items[0].ID != updated.Items[0].ID || !after.Items[0].RequiredQty.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("closed indent items changed: %+v", after.Items)
	}
}

func TestUpdateIndent_Permissions(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)
	creator := testutil.DeptActor("u_production", entity.DepartmentProduction)

	indent, err := env.svc.Indent.CreateIndent(env.ctx, creator, indentRequest(po, raw.ID))
	if err != nil {
		t.Fatalf("CreateIndent: %v", err)
	}

	remarks := "rewritten"
	req := &service.UpdateIndentRequest{
		Remarks: &remarks,
		Items:   []service.IndentItemInput{{ID: indent.Items[0].ID, RequiredQty: decimal.NewFromInt(50)}},
	}
	for _, other := range []service.Actor{
		testutil.DeptActor("u_marketing", entity.DepartmentMarketing),
		testutil.DeptActor("u_other", entity.DepartmentProduction),
	} {
		if _, err := env.svc.Indent.UpdateIndent(env.ctx, other, indent.ID, req); !errors.Is(err, service.ErrForbidden) {
			t.Fatalf("%s: expected forbidden, got %v", other.UserID, err)
		}
	}
	got, _ := env.svc.Indent.GetIndent(env.ctx, indent.ID)
	if got.Remarks != "" || !got.Items[0].RequiredQty.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("forbidden edit must not change the indent: %+v", got)
	}

	if _, err := env.svc.Indent.UpdateIndent(env.ctx, creator, indent.ID, req); err != nil {
		t.Fatalf("creator UpdateIndent: %v", err)
	}
	adminRemarks := "checked"
	if _, err := env.svc.Indent.UpdateIndent(env.ctx, testutil.AdminActor(), indent.ID, &service.UpdateIndentRequest{Remarks: &adminRemarks}); err != nil {
		t.Fatalf("admin UpdateIndent: %v", err)
	}
}

func TestUpdateIndent_RevalidatesProcess(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)

	indent, err := env.svc.Indent.CreateIndent(env.ctx, testutil.AdminActor(), indentRequest(po, raw.ID))
	if err != nil {
		t.Fatalf("CreateIndent: %v", err)
	}

	// 原料流程被移出领料类别
	cfg := testutil.TestConfig()
	delete(cfg.ERP.IndentCategories, testutil.DPRawMaterial)
	reconfigured := service.NewServices(repository.NewRepositories(env.db), env.db, nil, cfg, zap.NewNop())

	remarks := "after reconfiguration"
	_, err = reconfigured.Indent.UpdateIndent(env.ctx, testutil.AdminActor(), indent.ID, &service.UpdateIndentRequest{Remarks: &remarks})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("unmapped process: expected validation error, got %v", err)
	}

	// 流程定义改到了非生产部门
	if err := env.db.Model(&entity.DepartmentProcess{}).Where("id = ?", testutil.DPRawMaterial).
		Update("department", entity.DepartmentQuality).Error; err != nil {
		t.Fatalf("move department: %v", err)
	}
	_, err = env.svc.Indent.UpdateIndent(env.ctx, testutil.AdminActor(), indent.ID, &service.UpdateIndentRequest{Remarks: &remarks})
	if !errors.Is(err, service.ErrValidation) {
		t.Fatalf("non production process: expected validation error, got %v", err)
	}

	got, _ := env.svc.Indent.GetIndent(env.ctx, indent.ID)
	if got.Remarks != "" {
		t.Fatalf("rejected edits must not persist, remarks = %q", got.Remarks)
	}
}

func TestNumbering_DifferentScopesDoNotBlock(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	other := env.createPO(t, "PO-1002")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)
	acc := env.processFor(t, po.ID, testutil.DPAccessories)
	otherRaw := env.processFor(t, other.ID, testutil.DPRawMaterial)
	production := testutil.DeptActor("u_production", entity.DepartmentProduction)

	scope, err := env.svc.Numbering.IndentScope(po, testutil.DPRawMaterial)
	if err != nil {
		t.Fatalf("IndentScope: %v", err)
	}
	holder := env.db.Begin()
	defer holder.Rollback()
	if _, err := env.svc.Numbering.Next(env.ctx, holder, scope); err != nil {
		t.Fatalf("Next: %v", err)
	}

	for _, tc := range []struct {
		po      *entity.PurchaseOrder
		process string
		want    string
	}{
		{po, acc.ID, "IND/PO-1001/ACC/0001"},
		{other, otherRaw.ID, "IND/PO-1002/RAW/0001"},
	} {
		ctx, cancel := context.WithTimeout(env.ctx, 5*time.Second)
		indent, err := env.svc.Indent.CreateIndent(ctx, production, indentRequest(tc.po, tc.process))
		cancel()
		if err != nil {
			t.Fatalf("%s: blocked by another scope: %v", tc.want, err)
		}
		if indent.IndentNumber != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, indent.IndentNumber)
		}
	}

	// 同一作用域要等持锁事务结束
	ctx, cancel := context.WithTimeout(env.ctx, 300*time.Millisecond)
	defer cancel()
	if _, err := env.svc.Indent.CreateIndent(ctx, production, indentRequest(po, raw.ID)); err == nil {
		t.Fatalf("same scope should wait for the lock holder")
	}
}

func TestDeleteIndent_Permissions(t *testing.T) {
	env := setupEnv(t)
	po := env.createPO(t, "PO-1001")
	raw := env.processFor(t, po.ID, testutil.DPRawMaterial)
	creator := testutil.DeptActor("u_production", entity.DepartmentProduction)

	indent, err := env.svc.Indent.CreateIndent(env.ctx, creator, indentRequest(po, raw.ID))
	if err != nil {
		t.Fatalf("CreateIndent: %v", err)
	}
	stranger := testutil.DeptActor("u_other", entity.DepartmentProduction)
	if err := env.svc.Indent.DeleteIndent(env.ctx, stranger, indent.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := env.svc.Indent.DeleteIndent(env.ctx, creator, indent.ID); err != nil {
		t.Fatalf("DeleteIndent: %v", err)
	}
	if n := env.count(t, &entity.IndentItem{}, "indent_id = ?", indent.ID); n != 0 {
		t.Fatalf("indent items should be removed, got %d", n)
	}
}
