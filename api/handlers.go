package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/JONIJAIN/bms/batching"
	"github.com/JONIJAIN/bms/domain"
	"github.com/JONIJAIN/bms/lifecycle"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

const userIDContextKey = "bms.userID"

// idempotencyHeader carries a client-chosen key for retried mutations.
const idempotencyHeader = "X-Idempotency-Key"

type errorResponse struct {
	Error string `json:"error"`
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc Services, auth Authenticator, deduper Deduper, logger *log.Logger) {
	if svc.Clock == nil {
		svc.Clock = domain.SystemClock
	}

	e.GET("/healthz", healthz())
	e.Use(decompressRequests())

	g := e.Group("/api", authRequired(auth))

	g.POST("/companies", createCompany(svc))
	g.GET("/companies", listCompanies(svc))
	g.PATCH("/companies/:id", updateCompany(svc))
	g.DELETE("/companies/:id", deleteCompany(svc))
	g.POST("/companies/:id/switch", switchCompany(svc))
	g.GET("/companies/:id/stats", companyStats(svc))
	g.GET("/companies/:id/dashboard", companyDashboard(svc))

	g.POST("/tasks", captureTask(svc, deduper))
	g.GET("/tasks", listCapturedTasks(svc))
	g.POST("/tasks/process", processTasks(svc, deduper))

	g.GET("/schedule", weekSchedule(svc))
	g.POST("/schedule/template", createWeekTemplate(svc))
	g.PATCH("/schedule/:id", updateScheduled(svc))
	g.POST("/schedule/:id/start", startTracking(svc))
	g.POST("/schedule/:id/stop", stopTracking(svc))
	g.POST("/tuesday-magic", scheduleTuesdayMagic(svc))

	g.GET("/waiting", waitingList(svc))
	g.POST("/waiting/:id/resolve", resolveWaiting(svc))
	g.GET("/someday", somedayList(svc))
	g.POST("/someday/:id/activate", activateSomeday(svc))

	g.GET("/batching/analysis", batchingAnalysis(svc, logger))
	g.POST("/batching/implement", implementBatching(svc, deduper))
	g.GET("/batching/insights", batchingInsights(svc))
	g.GET("/batching/report", batchingReport(svc))

	g.GET("/time/entries", timeEntries(svc))
	g.POST("/time/entries", logTimeEntry(svc))
	g.GET("/time/daily", dailyStats(svc))
	g.GET("/time/weekly", weeklyStats(svc))
	g.GET("/time/mvot", mvotAnalysis(svc))

	g.GET("/settings/:key", getSetting(svc))
	g.PUT("/settings/:key", putSetting(svc))
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func authRequired(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: err.Error()})
			}
			c.Set(userIDContextKey, userID)
			return next(c)
		}
	}
}

func requestUserID(c echo.Context) string {
	userID, _ := c.Get(userIDContextKey).(string)
	return userID
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// respondError maps domain errors onto HTTP statuses. Unknown errors are
// logged and masked as 500s.
func respondError(c echo.Context, err error) error {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// companyScope resolves the company a request operates on: an explicit
// companyId query param, falling back to the DEFAULT_COMPANY setting.
func companyScope(c echo.Context, svc Services) (string, error) {
	if id := c.QueryParam("companyId"); id != "" {
		return id, nil
	}
	id, err := svc.Settings.Setting(c.Request().Context(), domain.SettingDefaultCompany)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &domain.ValidationError{Message: "companyId is required"}
	}
	return id, nil
}

// weekScope resolves the week a request operates on, defaulting to the
// Monday of the current week.
func weekScope(c echo.Context, svc Services) string {
	if ws := c.QueryParam("weekStart"); ws != "" {
		return ws
	}
	return domain.WeekStart(svc.Clock())
}

// claimIdempotency records the request's idempotency key when one is
// supplied. The returned release func rolls the claim back after a failure
// so the client may retry.
func claimIdempotency(c echo.Context, deduper Deduper) (release func(failed bool), duplicate bool, err error) {
	release = func(bool) {}
	key := c.Request().Header.Get(idempotencyHeader)
	if key == "" || deduper == nil {
		return release, false, nil
	}

	ctx := c.Request().Context()
	userID := requestUserID(c)
	added, err := deduper.Add(ctx, userID, key)
	if err != nil {
		return release, false, err
	}
	if !added {
		return release, true, nil
	}
	release = func(failed bool) {
		if !failed {
			return
		}
		if rerr := deduper.Remove(ctx, userID, key); rerr != nil {
			c.Logger().Errorf("dedupe rollback failed, err: %v, key: %s", rerr, key)
		}
	}
	return release, false, nil
}

type createCompanyRequest struct {
	Name           string  `json:"name"`
	AnnualTurnover float64 `json:"annualTurnover"`
	BusinessType   string  `json:"businessType"`
}

func createCompany(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createCompanyRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		company, err := svc.Lifecycle.CreateCompany(c.Request().Context(), domain.Company{
			Name:           req.Name,
			AnnualTurnover: req.AnnualTurnover,
			BusinessType:   req.BusinessType,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, company)
	}
}

func listCompanies(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companies, err := svc.Lifecycle.Companies(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, companies)
	}
}

func updateCompany(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var update lifecycle.CompanyUpdate
		if err := decodeBody(c, &update); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		company, err := svc.Lifecycle.UpdateCompany(c.Request().Context(), c.Param("id"), update)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, company)
	}
}

func deleteCompany(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := svc.Lifecycle.DeleteCompany(c.Request().Context(), c.Param("id")); err != nil {
			return respondError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func switchCompany(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		company, err := svc.Lifecycle.SwitchCompany(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, company)
	}
}

func companyStats(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := svc.Stats.CompanyStats(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func companyDashboard(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		dashboard, err := svc.Stats.Dashboard(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, dashboard)
	}
}

type captureRequest struct {
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Notes     string `json:"notes"`
}

func captureTask(svc Services, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		release, duplicate, err := claimIdempotency(c, deduper)
		if err != nil {
			return respondError(c, err)
		}
		if duplicate {
			return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
		}

		var req captureRequest
		if err := decodeBody(c, &req); err != nil {
			release(true)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := svc.Lifecycle.Capture(c.Request().Context(), domain.CapturedTask{
			CompanyID: req.CompanyID,
			Name:      req.Name,
			Category:  req.Category,
			Priority:  req.Priority,
			Notes:     req.Notes,
		})
		if err != nil {
			release(true)
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func listCapturedTasks(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		tasks, err := svc.Lifecycle.CapturedTasks(c.Request().Context(), companyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

type processRequest struct {
	TaskIDs   []string             `json:"taskIds"`
	Decisions []lifecycle.Decision `json:"decisions"`
}

func processTasks(svc Services, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		release, duplicate, err := claimIdempotency(c, deduper)
		if err != nil {
			return respondError(c, err)
		}
		if duplicate {
			return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
		}

		var req processRequest
		if err := decodeBody(c, &req); err != nil {
			release(true)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		result, err := svc.Lifecycle.ProcessTasks(c.Request().Context(), req.TaskIDs, req.Decisions)
		if err != nil {
			release(true)
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func weekSchedule(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		schedule, err := svc.Lifecycle.WeekSchedule(c.Request().Context(), companyID, weekScope(c, svc))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, schedule)
	}
}

type templateRequest struct {
	CompanyID string `json:"companyId"`
	WeekStart string `json:"weekStart"`
}

type templateResponse struct {
	Created int `json:"created"`
}

func createWeekTemplate(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req templateRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if req.WeekStart == "" {
			req.WeekStart = domain.WeekStart(svc.Clock())
		}
		created, err := svc.Lifecycle.CreateWeekTemplate(c.Request().Context(), req.CompanyID, req.WeekStart)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, templateResponse{Created: created})
	}
}

func updateScheduled(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var update lifecycle.ScheduledUpdate
		if err := decodeBody(c, &update); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := svc.Lifecycle.UpdateScheduled(c.Request().Context(), c.Param("id"), update)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func startTracking(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := svc.Lifecycle.StartTracking(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

type stopTrackingRequest struct {
	EndTime string `json:"endTime"`
}

func stopTracking(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req stopTrackingRequest
		if c.Request().ContentLength != 0 {
			if err := decodeBody(c, &req); err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
			}
		}
		task, err := svc.Lifecycle.StopTracking(c.Request().Context(), c.Param("id"), req.EndTime)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

type tuesdayMagicRequest struct {
	CompanyID string `json:"companyId"`
}

func scheduleTuesdayMagic(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req tuesdayMagicRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		task, err := svc.Lifecycle.ScheduleTuesdayMagic(c.Request().Context(), req.CompanyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func waitingList(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		items, err := svc.Lifecycle.WaitingList(c.Request().Context(), companyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, items)
	}
}

func resolveWaiting(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var data *lifecycle.ScheduleData
		if c.Request().ContentLength != 0 {
			data = &lifecycle.ScheduleData{}
			if err := decodeBody(c, data); err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
			}
		}
		task, err := svc.Lifecycle.ResolveWaiting(c.Request().Context(), c.Param("id"), data)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func somedayList(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		items, err := svc.Lifecycle.SomedayList(c.Request().Context(), companyID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, items)
	}
}

func activateSomeday(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := svc.Lifecycle.ActivateSomeday(c.Request().Context(), c.Param("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func batchingAnalysis(svc Services, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics := newRequestMetrics("/api/batching/analysis", logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		companyID, scopeErr := companyScope(c, svc)
		if scopeErr != nil {
			metrics.SetErrorStage("scope")
			err = respondError(c, scopeErr)
			return err
		}

		fetchStart := time.Now()
		analysis, analyzeErr := svc.Batching.Analyze(c.Request().Context(), companyID, weekScope(c, svc))
		metrics.ObserveFetch(time.Since(fetchStart))
		if analyzeErr != nil {
			metrics.SetErrorStage("analyze")
			err = respondError(c, analyzeErr)
			return err
		}
		metrics.SetItemsReturned(len(analysis.Opportunities))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, analysis)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

type implementRequest struct {
	CompanyID       string                    `json:"companyId"`
	WeekStart       string                    `json:"weekStart"`
	Recommendations []batching.Recommendation `json:"recommendations"`
}

func implementBatching(svc Services, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		release, duplicate, err := claimIdempotency(c, deduper)
		if err != nil {
			return respondError(c, err)
		}
		if duplicate {
			return c.JSON(http.StatusConflict, errorResponse{Error: "duplicate request"})
		}

		var req implementRequest
		if err := decodeBody(c, &req); err != nil {
			release(true)
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		if req.WeekStart == "" {
			req.WeekStart = domain.WeekStart(svc.Clock())
		}
		result, err := svc.Batching.Implement(c.Request().Context(), req.CompanyID, req.WeekStart, req.Recommendations)
		if err != nil {
			release(true)
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

func batchingInsights(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		insights := svc.Batching.Insights(c.Request().Context(), companyID, weekScope(c, svc))
		return c.JSON(http.StatusOK, insights)
	}
}

func batchingReport(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		report, err := svc.Batching.Report(c.Request().Context(), companyID, weekScope(c, svc), svc.Clock())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, report)
	}
}

func timeEntries(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		limit, err := queryInt(c, "limit", 0)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid limit"})
		}
		offset, err := queryInt(c, "offset", 0)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid offset"})
		}
		entries, err := svc.Stats.Entries(c.Request().Context(), companyID, limit, offset)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, entries)
	}
}

func logTimeEntry(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var entry domain.TimeEntry
		if err := decodeBody(c, &entry); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		logged, err := svc.Stats.LogManualEntry(c.Request().Context(), entry)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusCreated, logged)
	}
}

func dailyStats(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		date := c.QueryParam("date")
		if date == "" {
			date = svc.Clock().Format(domain.DateLayout)
		}
		stats, err := svc.Stats.Daily(c.Request().Context(), companyID, date)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func weeklyStats(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		analytics, err := svc.Stats.Weekly(c.Request().Context(), companyID, weekScope(c, svc))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, analytics)
	}
}

func mvotAnalysis(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		companyID, err := companyScope(c, svc)
		if err != nil {
			return respondError(c, err)
		}
		period, err := queryInt(c, "period", 0)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid period"})
		}
		analysis, err := svc.Stats.MVOT(c.Request().Context(), companyID, period)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, analysis)
	}
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func getSetting(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Param("key")
		value, err := svc.Settings.Setting(c.Request().Context(), key)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, settingResponse{Key: key, Value: value})
	}
}

type putSettingRequest struct {
	Value string `json:"value"`
}

func putSetting(svc Services) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req putSettingRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
		}
		key := c.Param("key")
		if err := svc.Settings.SetSetting(c.Request().Context(), key, req.Value); err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, settingResponse{Key: key, Value: req.Value})
	}
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}
