package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/middleware"
	"github.com/shopspring/decimal"
)

func TestAdminCheckMatchesMiddleware(t *testing.T) {
	cases := []struct {
		department string
		roles      []string
		want       bool
	}{
		{entity.DepartmentAdmin, nil, true},
		{entity.DepartmentProduction, []string{entity.RoleAdmin}, true},
		{entity.DepartmentProduction, []string{"viewer"}, false},
		{"admin", nil, false},
		{"", nil, false},
	}
	for _, tc := range cases {
		actor := Actor{UserID: "u", Department: tc.department, Roles: tc.roles}
		claims := &middleware.JWTClaims{UserID: "u", Department: tc.department, Roles: tc.roles}
		if actor.IsAdmin() != tc.want || claims.IsAdmin() != tc.want {
			t.Errorf("%q %v: actor=%v claims=%v, want %v", tc.department, tc.roles, actor.IsAdmin(), claims.IsAdmin(), tc.want)
		}
	}
}

func TestActorPermissions(t *testing.T) {
	admin := Actor{UserID: "u1", Roles: []string{entity.RoleAdmin}}
	adminDept := Actor{UserID: "u2", Department: entity.DepartmentAdmin}
	production := Actor{UserID: "u3", Department: entity.DepartmentProduction}
	marketing := Actor{UserID: "u4", Department: entity.DepartmentMarketing}
	nobody := Actor{UserID: "u5"}

	if !admin.IsAdmin() || !adminDept.IsAdmin() {
		t.Fatalf("admin role and Admin department must both be admin")
	}
	if production.IsAdmin() {
		t.Fatalf("production user is not admin")
	}

	dp := &entity.DepartmentProcess{Department: entity.DepartmentProduction}
	if !production.CanEditProcess(dp) {
		t.Errorf("production user should edit production process")
	}
	if marketing.CanEditProcess(dp) {
		t.Errorf("marketing user should not edit production process")
	}
	if !admin.CanEditProcess(dp) {
		t.Errorf("admin should edit any process")
	}
	if nobody.CanEditProcess(&entity.DepartmentProcess{}) {
		t.Errorf("user without department must not match an empty department")
	}
	if production.CanEditProcess(nil) {
		t.Errorf("nil definition must be rejected")
	}

	if !production.CanCloseIndent() || !admin.CanCloseIndent() {
		t.Errorf("production and admin can close indents")
	}
	owned := &entity.Indent{CreatedBy: production.UserID}
	if !production.CanModifyIndent(owned) || !admin.CanModifyIndent(owned) {
		t.Errorf("creator and admin should modify the indent")
	}
	if marketing.CanModifyIndent(owned) || (Actor{}).CanModifyIndent(&entity.Indent{}) {
		t.Errorf("only creator or admin may modify the indent")
	}
	if !adminDept.CanViewValues() || production.CanViewValues() {
		t.Errorf("values are visible to administrators only")
	}
	if marketing.CanCloseIndent() {
		t.Errorf("marketing cannot close indents")
	}

	if err := requireAdmin(marketing); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func validPORequest() *CreatePORequest {
	return &CreatePORequest{
		PONumber:  " PO-1001 ",
		OANumber:  "OA-1",
		PODate:    "2024-01-15",
		CompanyID: "c1",
		Items: []POItemInput{
			{MaterialDescription: "Steel sheet", Quantity: decimal.NewFromInt(10), Value: decimal.NewFromInt(500)},
		},
	}
}

func TestCreatePORequestValidate(t *testing.T) {
	req := validPORequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if req.PONumber != "PO-1001" {
		t.Errorf("po_number should be trimmed, got %q", req.PONumber)
	}
	if req.Items[0].Status != entity.POItemStatusPending {
		t.Errorf("item status should default to PENDING, got %s", req.Items[0].Status)
	}

	cases := []struct {
		name   string
		mutate func(r *CreatePORequest)
		want   string
	}{
		{"blank po number", func(r *CreatePORequest) { r.PONumber = "  " }, "po_number"},
		{"bad date", func(r *CreatePORequest) { r.PODate = "15/01/2024" }, "po_date"},
		{"bad delivery date", func(r *CreatePORequest) { r.DeliveryDate = "tomorrow" }, "delivery_date"},
		{"no items", func(r *CreatePORequest) { r.Items = nil }, "at least one item"},
		{"zero qty", func(r *CreatePORequest) { r.Items[0].Quantity = decimal.Zero }, "quantity"},
		{"negative value", func(r *CreatePORequest) { r.Items[0].Value = decimal.NewFromInt(-1) }, "value"},
		{"missing description", func(r *CreatePORequest) { r.Items[0].MaterialDescription = "" }, "description"},
		{"bad item status", func(r *CreatePORequest) { r.Items[0].Status = "shipped" }, "invalid status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := validPORequest()
			tc.mutate(r)
			err := r.Validate()
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidateBOMItems(t *testing.T) {
	one := decimal.NewFromInt(1)
	if err := validateBOMItems([]BOMItemInput{{POItemID: "a", Quantity: one}, {POItemID: "b", Quantity: one}}); err != nil {
		t.Fatalf("valid items rejected: %v", err)
	}

	bad := [][]BOMItemInput{
		nil,
		{{POItemID: "", Quantity: one}},
		{{POItemID: "a", Quantity: one}, {POItemID: "a", Quantity: one}},
		{{POItemID: "a", Quantity: decimal.Zero}},
		{{POItemID: "a", Quantity: decimal.NewFromInt(-2)}},
	}
	for i, items := range bad {
		if err := validateBOMItems(items); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestValidateIndentItems(t *testing.T) {
	qty := decimal.RequireFromString("2.5")
	if err := validateIndentItems([]IndentItemInput{{POItemID: "a", RequiredQty: qty}}); err != nil {
		t.Fatalf("valid items rejected: %v", err)
	}
	// 删除行不参与数量校验
	if err := validateIndentItems([]IndentItemInput{
		{ID: "x", Delete: true},
		{ID: "y", RequiredQty: qty},
	}); err != nil {
		t.Fatalf("deleted rows should be ignored: %v", err)
	}

	bad := [][]IndentItemInput{
		nil,
		{{ID: "x", Delete: true}},
		{{POItemID: "a", RequiredQty: decimal.Zero}},
		{{RequiredQty: qty}},
	}
	for i, items := range bad {
		if err := validateIndentItems(items); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestParseItemRow(t *testing.T) {
	in, err := parseItemRow([]string{"MAT-1", "Bolt M8", "100", "NOS", "25.50"})
	if err != nil {
		t.Fatalf("parseItemRow: %v", err)
	}
	if !in.Quantity.Equal(decimal.NewFromInt(100)) || in.Value.String() != "25.5" {
		t.Fatalf("unexpected values %v %v", in.Quantity, in.Value)
	}

	in, err = parseItemRow([]string{"", "Washer", "5"})
	if err != nil {
		t.Fatalf("short row should parse: %v", err)
	}
	if !in.Value.IsZero() || in.Unit != "" {
		t.Fatalf("missing cells should be empty")
	}

	if _, err := parseItemRow([]string{"", "Nut", "ten"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !isBlankRow([]string{" ", ""}) || isBlankRow([]string{"", "x"}) {
		t.Fatalf("isBlankRow misbehaves")
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("po1", `C:\docs\drawing.pdf`)
	if !strings.HasPrefix(key, "po/po1/") || !strings.HasSuffix(key, "_drawing.pdf") {
		t.Fatalf("unexpected key %s", key)
	}
}

func TestErrorKinds(t *testing.T) {
	if !errors.Is(ErrDuplicateBOM, ErrValidation) || !errors.Is(ErrIndentClosed, ErrValidation) {
		t.Fatalf("document errors are validation errors")
	}
	if !errors.Is(ErrAdminRequired, ErrForbidden) {
		t.Fatalf("admin required is forbidden")
	}
	if !errors.Is(notFoundErrorf("x"), ErrNotFound) {
		t.Fatalf("not found kind lost")
	}
	if err := mapDuplicate(errors.New("boom"), "dup"); errors.Is(err, ErrConflict) {
		t.Fatalf("non duplicate errors must pass through")
	}
}
