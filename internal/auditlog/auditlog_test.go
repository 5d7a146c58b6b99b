package auditlog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sharath018/seva-counter-backend/internal/dbtest"
)

type memRepo struct {
	logs []AuditLog
	err  error
}

func (m *memRepo) Create(_ context.Context, l *AuditLog) error {
	if m.err != nil {
		return m.err
	}
	l.ID = uint(len(m.logs) + 1)
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memRepo) GetByFilter(_ context.Context, f AuditLogFilter) ([]AuditLog, int64, error) {
	var out []AuditLog
	for _, l := range m.logs {
		if f.Resource != "" && l.Resource != f.Resource {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

func TestLogActionCarriesIPAndDetails(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)

	ctx := ContextWithIP(context.Background(), "10.0.0.7")
	svc.LogAction(ctx, "u-1", ResourceBooking, 42, "BOOKING_CREATED", map[string]interface{}{"receipt": "000001"}, StatusSuccess)

	require.Len(t, repo.logs, 1)
	got := repo.logs[0]
	assert.Equal(t, "10.0.0.7", got.IPAddress)
	assert.Equal(t, uint(42), got.ResourceID)
	assert.Equal(t, "000001", gjson.GetBytes(got.Details, "receipt").String())
}

func TestLogActionSwallowsWriteFailure(t *testing.T) {
	svc := NewService(&memRepo{err: errors.New("db down")})
	assert.NotPanics(t, func() {
		svc.LogAction(context.Background(), "u-1", ResourceSlot, 1, "SLOT_CLOSED", nil, StatusSuccess)
	})
}

func TestGetAuditLogsDefaultsPagination(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	for i := 0; i < 3; i++ {
		svc.LogAction(context.Background(), "u", ResourceService, uint(i), "SERVICE_CREATED", nil, StatusSuccess)
	}

	res, err := svc.GetAuditLogs(context.Background(), AuditLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.Limit)
	assert.Equal(t, 1, res.TotalPages)
	assert.EqualValues(t, 3, res.Total)
}

func TestRepositoryCreateInsertsRow(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	err := repo.Create(context.Background(), &AuditLog{UserID: "u", Resource: ResourceSlot, Action: "SLOT_CLOSED", Status: StatusSuccess})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlerRejectsBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(NewService(&memRepo{}))
	r.GET("/auditlogs", h.GetAuditLogs)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auditlogs?from_date=16-10-2026", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "from_date")
}

func TestHandlerFiltersByResource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &memRepo{}
	svc := NewService(repo)
	svc.LogAction(context.Background(), "u", ResourceSlot, 1, "SLOT_CLOSED", nil, StatusSuccess)
	svc.LogAction(context.Background(), "u", ResourceBooking, 2, "BOOKING_CREATED", nil, StatusSuccess)

	r := gin.New()
	r.GET("/auditlogs", NewHandler(svc).GetAuditLogs)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auditlogs?resource=booking", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, gjson.Get(w.Body.String(), "total").Int())
	assert.Equal(t, "BOOKING_CREATED", gjson.Get(w.Body.String(), "data.0.action").String())
}

func TestRepositoryGetByFilterCountsThenPages(t *testing.T) {
	db, mock := dbtest.NewMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE resource = \$1`).
		WithArgs(ResourceSettlement).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE resource = \$1 ORDER BY created_at DESC, id DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "resource", "action"}).
			AddRow(9, ResourceSettlement, "SETTLEMENT_LOCKED").
			AddRow(8, ResourceSettlement, "SETTLEMENT_SUBMITTED"))

	logs, total, err := repo.GetByFilter(context.Background(), AuditLogFilter{Resource: ResourceSettlement, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)
	assert.Equal(t, "SETTLEMENT_LOCKED", logs[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
