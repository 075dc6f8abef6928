package handler

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
	"github.com/sandip-dolai/suntechERP/internal/erp/testutil"
)

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   float64
	}{
		{service.ErrDuplicateBOM, http.StatusBadRequest, CodeBadRequest},
		{service.ErrIndentClosed, http.StatusBadRequest, CodeBadRequest},
		{service.ErrAdminRequired, http.StatusForbidden, CodeForbidden},
		{repository.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{fmt.Errorf("wrapped: %w", service.ErrConflict), http.StatusConflict, CodeConflict},
		{fmt.Errorf("wrapped: %w", service.ErrConfiguration), http.StatusInternalServerError, CodeConfiguration},
		{errors.New("db down"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, tc.err)
		if w.Code != tc.status {
			t.Errorf("%v: status %d, want %d", tc.err, w.Code, tc.status)
		}
		resp := testutil.ParseResponse(w)
		if resp["code"] != tc.code {
			t.Errorf("%v: code %v, want %v", tc.err, resp["code"], tc.code)
		}
	}
}

func setupERPTest(t *testing.T) (*gin.Engine, *testutil.Fixture) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.SeedMasterData(t, db)
	testutil.SeedUser(t, db, "u_production", entity.DepartmentProduction, true)

	r := testutil.SetupRouter()
	RegisterRoutes(testutil.AuthGroup(r, "/api/v1/erp"), NewHandlers(testutil.NewTestServices(t, db)))
	return r, fx
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	resp := testutil.ParseResponse(w)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no data object: %s", w.Body.String())
	}
	return data
}

func TestPurchaseOrderWorkflow(t *testing.T) {
	r, fx := setupERPTest(t)
	admin := testutil.AdminToken()
	production := testutil.GenerateTestToken("u_production", "Prod User", entity.DepartmentProduction, nil)
	marketing := testutil.GenerateTestToken("u_marketing", "Mkt User", entity.DepartmentMarketing, nil)

	if w := testutil.DoRequest(r, "GET", "/api/v1/erp/purchase-orders", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", w.Code)
	}

	poBody := map[string]interface{}{
		"po_number":  "PO-1001",
		"oa_number":  "OA-5001",
		"po_date":    "2024-03-01",
		"company_id": fx.Company.ID,
		"items": []map[string]interface{}{
			{"material_description": "Steel sheet", "quantity": "10", "unit": "KG", "value": "1500.00"},
			{"material_description": "Bolt M8", "quantity": 200, "value": 40},
		},
	}
	if w := testutil.DoRequest(r, "POST", "/api/v1/erp/purchase-orders", poBody, marketing); w.Code != http.StatusForbidden {
		t.Fatalf("non admin create: expected 403, got %d: %s", w.Code, w.Body.String())
	}

	w := testutil.DoRequest(r, "POST", "/api/v1/erp/purchase-orders", poBody, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create po: %d %s", w.Code, w.Body.String())
	}
	po := dataOf(t, w)
	poID := po["id"].(string)
	items := po["items"].([]interface{})
	firstItemID := items[0].(map[string]interface{})["id"].(string)

	if w := testutil.DoRequest(r, "POST", "/api/v1/erp/purchase-orders", poBody, admin); w.Code != http.StatusConflict {
		t.Fatalf("duplicate po: expected 409, got %d", w.Code)
	}

	// 行项金额只对管理员可见
	w = testutil.DoRequest(r, "GET", "/api/v1/erp/purchase-orders/"+poID, nil, production)
	if w.Code != http.StatusOK {
		t.Fatalf("get po: %d %s", w.Code, w.Body.String())
	}
	for _, it := range dataOf(t, w)["items"].([]interface{}) {
		if it.(map[string]interface{})["value_hidden"] != true {
			t.Fatalf("value should be hidden from production: %v", it)
		}
	}
	w = testutil.DoRequest(r, "GET", "/api/v1/erp/purchase-orders/"+poID, nil, admin)
	first := dataOf(t, w)["items"].([]interface{})[0].(map[string]interface{})
	if _, hidden := first["value_hidden"]; hidden || first["value"] != "1500" {
		t.Fatalf("admin should see values: %v", first)
	}

	// 部门流程清单
	w = testutil.DoRequest(r, "GET", "/api/v1/erp/purchase-orders/"+poID+"/processes", nil, production)
	if w.Code != http.StatusOK {
		t.Fatalf("list processes: %d %s", w.Code, w.Body.String())
	}
	processes := dataOf(t, w)["items"].([]interface{})
	if len(processes) != len(fx.Processes) {
		t.Fatalf("expected %d processes, got %d", len(fx.Processes), len(processes))
	}
	var rawProcessID string
	for _, p := range processes {
		pm := p.(map[string]interface{})
		if pm["department_process_id"] == testutil.DPRawMaterial {
			rawProcessID = pm["id"].(string)
		}
	}
	if rawProcessID == "" {
		t.Fatalf("raw material process missing")
	}

	statusBody := map[string]interface{}{"status_id": fx.Done.ID, "remark": "received"}
	if w := testutil.DoRequest(r, "PUT", "/api/v1/erp/po-processes/"+rawProcessID+"/status", statusBody, marketing); w.Code != http.StatusForbidden {
		t.Fatalf("marketing transition: expected 403, got %d", w.Code)
	}
	if w := testutil.DoRequest(r, "PUT", "/api/v1/erp/po-processes/"+rawProcessID+"/status", statusBody, production); w.Code != http.StatusOK {
		t.Fatalf("production transition: %d %s", w.Code, w.Body.String())
	}

	// BOM
	bomBody := map[string]interface{}{
		"po_id": poID,
		"items": []map[string]interface{}{{"po_item_id": firstItemID, "quantity": "5"}},
	}
	w = testutil.DoRequest(r, "POST", "/api/v1/erp/boms", bomBody, production)
	if w.Code != http.StatusCreated {
		t.Fatalf("create bom: %d %s", w.Code, w.Body.String())
	}
	if bomNo := dataOf(t, w)["bom_no"]; bomNo != "BOM/PO-1001/0001" {
		t.Fatalf("unexpected bom_no %v", bomNo)
	}
	w = testutil.DoRequest(r, "POST", "/api/v1/erp/boms", bomBody, production)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second bom: expected 400, got %d", w.Code)
	}
	if msg := testutil.ParseResponse(w)["message"]; msg != service.ErrDuplicateBOM.Message {
		t.Fatalf("unexpected message %v", msg)
	}

	// 领料单
	indentBody := map[string]interface{}{
		"po_id":         poID,
		"po_process_id": rawProcessID,
		"items":         []map[string]interface{}{{"po_item_id": firstItemID, "required_qty": "2.5"}},
	}
	w = testutil.DoRequest(r, "POST", "/api/v1/erp/indents", indentBody, production)
	if w.Code != http.StatusCreated {
		t.Fatalf("create indent: %d %s", w.Code, w.Body.String())
	}
	indent := dataOf(t, w)
	if indent["indent_number"] != "IND/PO-1001/RAW/0001" {
		t.Fatalf("unexpected indent_number %v", indent["indent_number"])
	}
	indentID := indent["id"].(string)

	if w := testutil.DoRequest(r, "DELETE", "/api/v1/erp/purchase-orders/"+poID+"/items/"+firstItemID, nil, admin); w.Code != http.StatusBadRequest {
		t.Fatalf("delete referenced item: expected 400, got %d", w.Code)
	}

	if w := testutil.DoRequest(r, "PUT", "/api/v1/erp/indents/"+indentID, map[string]interface{}{"remarks": "mine"}, marketing); w.Code != http.StatusForbidden {
		t.Fatalf("marketing edit: expected 403, got %d", w.Code)
	}
	if w := testutil.DoRequest(r, "POST", "/api/v1/erp/indents/"+indentID+"/close", nil, marketing); w.Code != http.StatusForbidden {
		t.Fatalf("marketing close: expected 403, got %d", w.Code)
	}
	if w := testutil.DoRequest(r, "POST", "/api/v1/erp/indents/"+indentID+"/close", nil, production); w.Code != http.StatusOK {
		t.Fatalf("close indent: %d %s", w.Code, w.Body.String())
	}
	w = testutil.DoRequest(r, "PUT", "/api/v1/erp/indents/"+indentID, map[string]interface{}{"remarks": "late"}, production)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("edit closed indent: expected 400, got %d", w.Code)
	}

	if w := testutil.DoRequest(r, "DELETE", "/api/v1/erp/purchase-orders/"+poID, nil, admin); w.Code != http.StatusBadRequest {
		t.Fatalf("delete po with documents: expected 400, got %d", w.Code)
	}

	// 通知
	w = testutil.DoRequest(r, "GET", "/api/v1/erp/notifications/unread-count", nil, production)
	if w.Code != http.StatusOK || dataOf(t, w)["count"] != float64(1) {
		t.Fatalf("unread count: %d %s", w.Code, w.Body.String())
	}

	if w := testutil.DoRequest(r, "GET", "/api/v1/erp/purchase-orders/missing", nil, admin); w.Code != http.StatusNotFound {
		t.Fatalf("missing po: expected 404, got %d", w.Code)
	}
}

func TestAttachmentsWithoutStorage(t *testing.T) {
	r, _ := setupERPTest(t)
	admin := testutil.AdminToken()

	if w := testutil.DoRequest(r, "GET", "/api/v1/erp/attachments/none/download", nil, admin); w.Code != http.StatusNotFound {
		t.Fatalf("missing attachment: expected 404, got %d", w.Code)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, _ := mw.CreateFormFile("file", "drawing.pdf")
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req, _ := http.NewRequest("POST", "/api/v1/erp/purchase-orders/any/attachments", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("upload without storage: expected 500, got %d", w.Code)
	}
	if code := testutil.ParseResponse(w)["code"]; code != float64(CodeConfiguration) {
		t.Fatalf("expected configuration code, got %v", code)
	}
}
