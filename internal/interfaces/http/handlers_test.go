package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/assetdesk/assetdesk/internal/application/store"
	"github.com/assetdesk/assetdesk/internal/domain/entity"
	"github.com/assetdesk/assetdesk/internal/report"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	s := store.New(store.State{
		Users: []entity.User{
			{ID: "u-admin", Name: "Ada Ops", Email: "ada@corp.test", Role: entity.RoleAdmin, Status: entity.UserActive},
			{ID: "u-mgr", Name: "Mona Lead", Email: "mona@corp.test", Role: entity.RoleManager, Status: entity.UserActive},
			{ID: "u-emp", Name: "Eli Dev", Email: "eli@corp.test", Role: entity.RoleUser, ManagerID: "u-mgr", Status: entity.UserActive},
		},
		Equipment: []entity.Equipment{
			{ID: "eq-1", AssetID: "AST-001", Type: "laptop", Status: entity.StatusAvailable, AssignmentStatus: entity.AssignNone},
		},
	}, nil, nil)

	server := NewServer(DefaultServerConfig(), s, report.NewInventoryGenerator("Acme", zap.NewNop()), nopLogger{})
	return server, s
}

func doJSON(t *testing.T, server *Server, method, path, actorID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-Actor-Id", actorID)
	}

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheckNeedsNoActor(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestAPIRejectsUnresolvedActor(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/equipment", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/equipment", "u-ghost", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/equipment", "u-emp", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApprovalFlowOverHTTP(t *testing.T) {
	server, s := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/approvals", "u-emp", CreateApprovalRequest{
		EquipmentCategory:   "laptop",
		Reason:              "hardware refresh",
		AssignedEquipmentID: "eq-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var approval entity.Approval
	resp := decodeResponse(t, rec)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &approval))
	assert.Equal(t, entity.ApprovalWaitingManager, approval.Status)

	// An admin cannot decide the manager step
	rec = doJSON(t, server, http.MethodPost, "/api/approvals/"+approval.ID+"/status", "u-admin",
		UpdateApprovalStatusRequest{Status: entity.ApprovalWaitingIT.String()})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotEmpty(t, decodeResponse(t, rec).Error)

	rec = doJSON(t, server, http.MethodPost, "/api/approvals/"+approval.ID+"/status", "u-mgr",
		UpdateApprovalStatusRequest{Status: entity.ApprovalWaitingIT.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/approvals/"+approval.ID+"/status", "u-admin",
		UpdateApprovalStatusRequest{Status: entity.ApprovalApproved.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	item, ok := s.GetEquipment("eq-1")
	require.True(t, ok)
	assert.Equal(t, entity.AssignPendingDelivery, item.AssignmentStatus)

	// Beneficiary confirms receipt
	rec = doJSON(t, server, http.MethodPost, "/api/equipment/eq-1/confirm-receipt", "u-emp", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	item, _ = s.GetEquipment("eq-1")
	assert.Equal(t, entity.StatusAssigned, item.Status)
}

func TestUnknownApprovalReturns404(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/approvals/ap-missing/status", "u-mgr",
		UpdateApprovalStatusRequest{Status: entity.ApprovalWaitingIT.String()})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateEquipmentValidatesAssetID(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/equipment", "u-admin", CreateEquipmentRequest{
		AssetID: "bad id", Type: "laptop",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/equipment", "u-admin", CreateEquipmentRequest{
		AssetID: "AST-100", Type: "laptop", Model: "XPS 13",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTimelineEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/timeline/equipment/eq-1", "u-emp", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/timeline/planet/eq-1", "u-emp", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemNoticeRequiresPrivilegedActor(t *testing.T) {
	server, s := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/notices", "u-emp",
		CreateNoticeRequest{Message: "headcount review next week"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/notices", "u-admin",
		CreateNoticeRequest{Message: "headcount review next week"})
	require.Equal(t, http.StatusCreated, rec.Code)

	admin, ok := s.GetUser("u-admin")
	require.True(t, ok)
	events := s.Events(&admin)
	require.NotEmpty(t, events)
	assert.Equal(t, entity.EventSystemNotice, events[0].Type)
	assert.Equal(t, "headcount review next week", events[0].Description)
}

func TestSettingsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/settings/report.title", "u-emp", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodPut, "/api/settings/report.title", "u-emp",
		SetSettingRequest{Value: "Equipment register"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, server, http.MethodPut, "/api/settings/report.title", "u-admin",
		SetSettingRequest{Value: "Equipment register"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/settings/report.title", "u-emp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Equipment register", decodeResponse(t, rec).Data)
}

func TestInventoryExport(t *testing.T) {
	server, s := newTestServer(t)
	s.SetSetting("report.title", "Hardware register")

	rec := doJSON(t, server, http.MethodGet, "/api/reports/inventory", "u-admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	require.NotZero(t, rec.Body.Len())

	// The configured report title ends up in the workbook
	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()

	title, err := wb.GetCellValue("Inventory", "A2")
	require.NoError(t, err)
	assert.Contains(t, title, "Hardware register")
}
