package handler

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/noah-isme/hostel-api/internal/middleware"
	"github.com/noah-isme/hostel-api/internal/models"
	"github.com/noah-isme/hostel-api/internal/repository"
	"github.com/noah-isme/hostel-api/internal/service"
	"github.com/noah-isme/hostel-api/pkg/storage"
)

type listEnvelope struct {
	Data       []map[string]interface{} `json:"data"`
	Pagination map[string]interface{}   `json:"pagination"`
}

func TestHostelRoutesIntegration(t *testing.T) {
	router := buildHostelRouter(t)

	t.Run("students search", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students?search=ALI", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var body listEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "S001", body.Data[0]["id"])
		assert.Equal(t, float64(1), body.Pagination["total_count"])
	})

	t.Run("students unallocated", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students?unallocated=true", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var body listEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "S005", body.Data[0]["id"])
	})

	t.Run("students list forbidden for student", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students", nil)
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		req.Header.Set("X-Test-Student", "S001")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
		var body responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "/me", body.Meta["redirect"])
	})

	t.Run("student reads own record", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students/S001", nil)
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		req.Header.Set("X-Test-Student", "S001")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("student cannot read another record", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/students/S002", nil)
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		req.Header.Set("X-Test-Student", "S001")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/rooms", nil)
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("create student invalid payload", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("create student then allocate into full room", func(t *testing.T) {
		payload := `{"name":"Fiona Gale","email":"fiona@example.com","phone":"678-901-2345","address":"9 Elm Ct","course":"Biology"}`
		req, _ := http.NewRequest(http.MethodPost, "/students", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		var created responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
		id, _ := created.Data["id"].(string)
		require.NotEmpty(t, id)

		req, _ = http.NewRequest(http.MethodPost, "/rooms/R101/occupants", bytes.NewBufferString(`{"student_id":"`+id+`"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
		var failed responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &failed))
		assert.Equal(t, "ROOM_FULL", failed.Error["code"])

		req, _ = http.NewRequest(http.MethodGet, "/rooms/R101", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var room responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &room))
		assert.Equal(t, []interface{}{"S001", "S002"}, room.Data["occupants"])
	})

	t.Run("allocate and deallocate", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/rooms/R201/occupants", bytes.NewBufferString(`{"student_id":"S005"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var alloc responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &alloc))
		room, _ := alloc.Data["room"].(map[string]interface{})
		assert.Equal(t, []interface{}{"S005"}, room["occupants"])

		req, _ = http.NewRequest(http.MethodDelete, "/students/S005/room", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		req, _ = http.NewRequest(http.MethodDelete, "/students/S005/room", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusConflict, resp.Code)
		assert.Contains(t, resp.Body.String(), "NOT_ASSIGNED")
	})

	t.Run("allocate requires student id", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/rooms/R201/occupants", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("fee status update shapes report", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPatch, "/fees/F02/status", bytes.NewBufferString(`{"status":"Paid"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		req, _ = http.NewRequest(http.MethodGet, "/reports/fees-due", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, `attachment; filename="fee_due_report.csv"`, resp.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(resp.Body.String(), "StudentID,StudentName,AmountDue,DueDate\n"))
		assert.NotContains(t, resp.Body.String(), "S002")
	})

	t.Run("fees filter rejects unknown status", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/fees?status=Overdue", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("unknown report kind", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/reports/payroll", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("stored export downloads through signed link", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/reports/students/exports?format=pdf", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusCreated, resp.Code)
		var created responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
		url, _ := created.Data["url"].(string)
		require.True(t, strings.HasPrefix(url, "/api/v1/exports/"))

		req, _ = http.NewRequest(http.MethodGet, strings.TrimPrefix(url, "/api/v1"), nil)
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, `attachment; filename="hostel_students.pdf"`, resp.Header().Get("Content-Disposition"))

		req, _ = http.NewRequest(http.MethodGet, "/exports/not-a-token", nil)
		resp = performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("mark attendance twice keeps one record", func(t *testing.T) {
		for _, present := range []string{"true", "false"} {
			req, _ := http.NewRequest(http.MethodPost, "/attendance", bytes.NewBufferString(`{"student_id":"S004","date":"2024-06-01","present":`+present+`}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Test-Role", string(models.RoleAdmin))
			resp := performRequest(router, req)
			require.Equal(t, http.StatusOK, resp.Code)
		}

		req, _ := http.NewRequest(http.MethodGet, "/attendance/history?student_id=S004&start_date=2024-06-01&end_date=2024-06-01", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var body listEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, false, body.Data[0]["present"])
	})

	t.Run("bulk attendance and daily sheet", func(t *testing.T) {
		payload := `{"date":"2024-06-02","entries":[{"student_id":"S001","present":true},{"student_id":"S005","present":false}]}`
		req, _ := http.NewRequest(http.MethodPost, "/attendance/bulk", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		req, _ = http.NewRequest(http.MethodGet, "/attendance/daily?date=2024-06-02", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"date":"2024-06-02"`)
	})

	t.Run("history with open range returns seeded records", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/attendance/history?student_id=all&start_date=&end_date=", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var body listEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.GreaterOrEqual(t, len(body.Data), 8)
	})

	t.Run("student uploads own picture", func(t *testing.T) {
		req := multipartPicture(t, "/students/S003/picture")
		req.Header.Set("X-Test-Role", string(models.RoleStudent))
		req.Header.Set("X-Test-Student", "S003")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var body responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		picture, _ := body.Data["profile_picture_url"].(string)
		assert.True(t, strings.HasPrefix(picture, "data:image/png;base64,"))
	})

	t.Run("picture upload requires file", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/students/S003/picture", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("delete student", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, "/students/S002", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNoContent, resp.Code)

		req, _ = http.NewRequest(http.MethodGet, "/rooms/R101", nil)
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp = performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		var room responseEnvelope
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &room))
		assert.Equal(t, []interface{}{"S001"}, room.Data["occupants"])
	})
}

func buildHostelRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewStore(repository.StoreOptions{})
	store.Seed(time.Now())
	students := repository.NewStudentRepository(store)
	rooms := repository.NewRoomRepository(store)
	fees := repository.NewFeeRepository(store)
	attendance := repository.NewAttendanceRepository(store)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	cache := service.NewCacheService(nil, nil, time.Minute, zap.NewNop(), false)
	metrics := service.NewMetricsService()
	validate := validator.New()

	studentHandler := NewStudentHandler(service.NewStudentService(students, cache, service.PictureConfig{MaxBytes: 1 << 20}, validate, zap.NewNop()), 1<<20)
	roomHandler := NewRoomHandler(service.NewRoomService(rooms, students, cache, metrics, zap.NewNop()))
	feeHandler := NewFeeHandler(service.NewFeeService(fees, students, cache, validate, zap.NewNop()))
	attendanceHandler := NewAttendanceHandler(service.NewAttendanceService(attendance, students, cache, metrics, validate, zap.NewNop()))
	reportHandler := NewReportHandler(service.NewReportService(service.ReportServiceParams{
		Students: students,
		Rooms:    rooms,
		Fees:     fees,
		Storage:  files,
		Signer:   storage.NewSignedURLSigner("test-secret", time.Hour),
		Metrics:  metrics,
		Config:   service.ReportConfig{APIPrefix: "/api/v1"},
	}))

	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.GET("/exports/:token", reportHandler.DownloadExport)

	secured := router.Group("")
	secured.Use(func(c *gin.Context) {
		role := c.GetHeader("X-Test-Role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
			UserID:    "test-user",
			Role:      models.UserRole(role),
			StudentID: c.GetHeader("X-Test-Student"),
		})
		c.Next()
	})

	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := internalmiddleware.RBAC(string(models.RoleAdmin), internalmiddleware.Self)

	secured.GET("/students", adminOnly, studentHandler.List)
	secured.POST("/students", adminOnly, studentHandler.Create)
	secured.GET("/students/:id", adminOrSelf, studentHandler.Get)
	secured.DELETE("/students/:id", adminOnly, studentHandler.Delete)
	secured.POST("/students/:id/picture", adminOrSelf, studentHandler.UploadPicture)
	secured.DELETE("/students/:id/room", adminOnly, roomHandler.Deallocate)
	secured.GET("/rooms", adminOnly, roomHandler.List)
	secured.GET("/rooms/:id", adminOnly, roomHandler.Get)
	secured.POST("/rooms/:id/occupants", adminOnly, roomHandler.Allocate)
	secured.GET("/fees", adminOnly, feeHandler.List)
	secured.PATCH("/fees/:id/status", adminOnly, feeHandler.UpdateStatus)
	secured.GET("/attendance/daily", adminOnly, attendanceHandler.Daily)
	secured.GET("/attendance/history", adminOnly, attendanceHandler.History)
	secured.POST("/attendance", adminOnly, attendanceHandler.Mark)
	secured.POST("/attendance/bulk", adminOnly, attendanceHandler.MarkBulk)
	secured.GET("/reports/:kind", adminOnly, reportHandler.Download)
	secured.POST("/reports/:kind/exports", adminOnly, reportHandler.CreateExport)

	return router
}

func multipartPicture(t *testing.T, path string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("picture", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(encoded.Bytes())
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func performRequest(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
