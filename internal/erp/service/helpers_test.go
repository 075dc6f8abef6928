package service_test

import (
	"context"
	"testing"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
	"github.com/sandip-dolai/suntechERP/internal/erp/testutil"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type testEnv struct {
	db  *gorm.DB
	svc *service.Services
	fx  *testutil.Fixture
	ctx context.Context
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &testEnv{
		db:  db,
		svc: testutil.NewTestServices(t, db),
		fx:  testutil.SeedMasterData(t, db),
		ctx: context.Background(),
	}
}

func poRequest(companyID, poNumber string, lines ...string) *service.CreatePORequest {
	req := &service.CreatePORequest{
		PONumber:  poNumber,
		OANumber:  "OA-" + poNumber,
		PODate:    "2024-03-01",
		CompanyID: companyID,
	}
	if len(lines) == 0 {
		lines = []string{"Steel sheet", "Bolt M8"}
	}
	for _, desc := range lines {
		req.Items = append(req.Items, service.POItemInput{
			MaterialDescription: desc,
			Quantity:            decimal.NewFromInt(10),
			Unit:                "KG",
			Value:               decimal.NewFromInt(100),
		})
	}
	return req
}

func (e *testEnv) createPO(t *testing.T, poNumber string, lines ...string) *entity.PurchaseOrder {
	t.Helper()
	po, err := e.svc.PO.CreatePO(e.ctx, testutil.AdminActor(), poRequest(e.fx.Company.ID, poNumber, lines...))
	if err != nil {
		t.Fatalf("CreatePO %s: %v", poNumber, err)
	}
	return po
}

// processFor 找到PO下某个流程定义对应的流程行
func (e *testEnv) processFor(t *testing.T, poID, departmentProcessID string) entity.POProcess {
	t.Helper()
	processes, err := e.svc.Checklist.ListByPO(e.ctx, poID)
	if err != nil {
		t.Fatalf("ListByPO: %v", err)
	}
	for _, p := range processes {
		if p.DepartmentProcessID == departmentProcessID {
			return p
		}
	}
	t.Fatalf("process %s not found for po %s", departmentProcessID, poID)
	return entity.POProcess{}
}

func (e *testEnv) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func indentRequest(po *entity.PurchaseOrder, processID string) *service.CreateIndentRequest {
	return &service.CreateIndentRequest{
		POID:        po.ID,
		POProcessID: processID,
		Items: []service.IndentItemInput{
			{POItemID: po.Items[0].ID, RequiredQty: decimal.NewFromInt(2)},
		},
	}
}
