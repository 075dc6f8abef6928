package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/sandip-dolai/suntechERP/internal/config"
	"github.com/sandip-dolai/suntechERP/internal/erp/entity"
	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
	"github.com/sandip-dolai/suntechERP/internal/erp/service"
	"github.com/sandip-dolai/suntechERP/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_erp"
	JWTSecret  = "suntech-erp-test-secret"
)

// 测试用生产部门流程定义ID，与默认领料类别映射一致
const (
	DPRawMaterial = "dp_raw_material"
	DPAccessories = "dp_accessories"
	DPPacking     = "dp_packing"
	DPMarketing   = "dp_marketing_review"
	DPQuality     = "dp_quality_check"
)

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func loadEnv() {
	if root := projectRoot(); root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates an isolated schema per test and drops it on cleanup.
// Tests are skipped when PostgreSQL is not reachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "127.0.0.1"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "suntech"),
		getEnv("DB_PASSWORD", "suntech"),
		getEnv("DB_NAME", "suntech_erp"),
	)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	sqlSetup, _ := setupDB.DB()
	if err := sqlSetup.Ping(); err != nil {
		sqlSetup.Close()
		t.Skipf("postgres not available: %v", err)
	}
	setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName))
	sqlSetup.Close()

	// search_path 写在DSN里，连接池里的每个连接都落在测试schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(entity.AllModels()...); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			if sqlClean, _ := cleanDB.DB(); sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// TestConfig 测试配置：无Redis、无MinIO、默认领料类别
func TestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: JWTSecret},
		ERP: config.ERPConfig{
			IndentCategories: config.DefaultIndentCategories(),
			DefaultStatus:    "PENDING",
			MasterCacheTTL:   time.Minute,
		},
	}
}

// NewTestServices 基于测试库构建完整服务集合
func NewTestServices(t *testing.T, db *gorm.DB) *service.Services {
	t.Helper()
	repos := repository.NewRepositories(db)
	return service.NewServices(repos, db, nil, TestConfig(), zap.NewNop())
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group with JWT auth middleware for testing
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid JWT token for testing
func GenerateTestToken(userID, name, department string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":        userID,
		"uid":        userID,
		"name":       name,
		"email":      userID + "@test.com",
		"department": department,
		"roles":      roles,
		"iss":        "suntech-erp",
		"iat":        now.Unix(),
		"exp":        now.Add(24 * time.Hour).Unix(),
		"jti":        fmt.Sprintf("test-jti-%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for the default admin test user
func AdminToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", entity.DepartmentAdmin, []string{entity.RoleAdmin})
}

// AdminActor 与 AdminToken 对应的操作人
func AdminActor() service.Actor {
	return service.Actor{UserID: "test-admin-001", Name: "Test Admin", Department: entity.DepartmentAdmin, Roles: []string{entity.RoleAdmin}}
}

// DeptActor 指定部门的普通用户
func DeptActor(userID, department string) service.Actor {
	return service.Actor{UserID: userID, Name: userID, Department: department}
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedUser 创建用户
func SeedUser(t *testing.T, db *gorm.DB, id, department string, active bool) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:         id,
		Username:   "user_" + id,
		Name:       id,
		Email:      id + "@test.com",
		Department: department,
		IsActive:   active,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedCompany 创建公司
func SeedCompany(t *testing.T, db *gorm.DB, id, code, code2 string) *entity.Company {
	t.Helper()
	company := &entity.Company{ID: id, Code: code, Code2: code2, Name: "Company " + code}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("Failed to seed company: %v", err)
	}
	return company
}

// SeedStatus 创建流程状态
func SeedStatus(t *testing.T, db *gorm.DB, id, name string, active bool) *entity.ProcessStatus {
	t.Helper()
	status := &entity.ProcessStatus{ID: id, Name: name, IsActive: active}
	if err := db.Create(status).Error; err != nil {
		t.Fatalf("Failed to seed process status: %v", err)
	}
	return status
}

// SeedDepartmentProcess 创建部门流程定义
func SeedDepartmentProcess(t *testing.T, db *gorm.DB, id, department, name string, sequence int, active bool) *entity.DepartmentProcess {
	t.Helper()
	dp := &entity.DepartmentProcess{ID: id, Department: department, Name: name, Sequence: sequence, IsActive: active}
	if err := db.Create(dp).Error; err != nil {
		t.Fatalf("Failed to seed department process: %v", err)
	}
	return dp
}

// Fixture 常用主数据
type Fixture struct {
	Company   *entity.Company
	Pending   *entity.ProcessStatus
	Done      *entity.ProcessStatus
	Processes []*entity.DepartmentProcess
}

// SeedMasterData 创建一家公司、PENDING/DONE 状态和五个启用的部门流程定义
// （其中三个属于生产部门并有领料类别映射）
func SeedMasterData(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()
	f := &Fixture{
		Company: SeedCompany(t, db, "company_acme", "ACME", "1001"),
		Pending: SeedStatus(t, db, "status_pending", "PENDING", true),
		Done:    SeedStatus(t, db, "status_done", "DONE", true),
	}
	f.Processes = []*entity.DepartmentProcess{
		SeedDepartmentProcess(t, db, DPMarketing, entity.DepartmentMarketing, "Order Review", 1, true),
		SeedDepartmentProcess(t, db, DPRawMaterial, entity.DepartmentProduction, "Raw Material", 2, true),
		SeedDepartmentProcess(t, db, DPAccessories, entity.DepartmentProduction, "Accessories", 3, true),
		SeedDepartmentProcess(t, db, DPPacking, entity.DepartmentProduction, "Packing", 4, true),
		SeedDepartmentProcess(t, db, DPQuality, entity.DepartmentQuality, "Final Inspection", 5, true),
	}
	return f
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
