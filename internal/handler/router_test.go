// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/cache"
	"github.com/olegiv/uphouse/internal/content"
	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/media"
	"github.com/olegiv/uphouse/internal/middleware"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
	"github.com/olegiv/uphouse/internal/session"
	"github.com/olegiv/uphouse/internal/store"
	"github.com/olegiv/uphouse/internal/testutil"
	"github.com/olegiv/uphouse/web"
)

// newTestServer wires the full router over b. db holds the cookie sessions
// and the event log.
func newTestServer(t *testing.T, b backend.Backend, db *sql.DB) *httptest.Server {
	t.Helper()
	return newTestServerWithMedia(t, b, db, media.Unconfigured{})
}

// newTestServerWithMedia is newTestServer with uploads going to gw.
func newTestServerWithMedia(t *testing.T, b backend.Backend, db *sql.DB, gw media.Gateway) *httptest.Server {
	t.Helper()
	_, noMedia := gw.(media.Unconfigured)

	logger := testutil.TestLogger()
	sm := session.NewManager(db, true)

	cacher := cache.NewMemoryCache(cache.MemoryCacheOptions{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(func() { _ = cacher.Close() })

	events := store.NewEventLog(db)
	sessions := session.NewStore(sm, b, cacher, session.Options{ResolveBudget: 5 * time.Second}, logger)
	sessions.Init(session.AuditListener(events, logger))
	t.Cleanup(sessions.Teardown)

	renderer, err := render.New(render.Config{TemplatesFS: web.TemplatesFS(), SessionManager: sm, IsDev: true})
	require.NoError(t, err)

	ttl := time.Minute
	router := NewRouter(Deps{
		Backend:        b,
		DB:             db,
		SessionManager: sm,
		Sessions:       sessions,
		Renderer:       renderer,
		StaticFS:       web.StaticFS(),
		Pages: Pages{
			Home:     content.NewRepository[model.HomePage](b, model.PageHome, cacher, ttl, logger),
			About:    content.NewRepository[model.AboutPage](b, model.PageAbout, cacher, ttl, logger),
			Contact:  content.NewRepository[model.ContactPage](b, model.PageContact, cacher, ttl, logger),
			Projects: content.NewRepository[model.ProjectsPage](b, model.PageProjects, cacher, ttl, logger),
		},
		Projects:     listing.NewProjects(b, gw, cacher, ttl, logger),
		Leads:        listing.NewLeads(b),
		Events:       events,
		Media:        gw,
		MediaReady:   !noMedia,
		CacheBackend: cache.BackendMemory,
		LoginProtection: middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit: 100,
			IPBurst:     100,
		}),
		ContactThrottle: middleware.NewThrottle(100, 100),
		IsDev:           true,
		CSRFKey:         []byte("test-secret-key-32-bytes-long!!!"),
		ServerAddr:      "localhost:8080",
		Logger:          logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

type page struct {
	status int
	path   string
	body   string
}

func read(t *testing.T, resp *http.Response) page {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return page{status: resp.StatusCode, path: resp.Request.URL.Path, body: string(body)}
}

func get(t *testing.T, c *http.Client, u string) page {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	return read(t, resp)
}

func postForm(t *testing.T, c *http.Client, u string, values url.Values) page {
	t.Helper()
	resp, err := c.PostForm(u, values)
	require.NoError(t, err)
	return read(t, resp)
}

func postMultipart(t *testing.T, c *http.Client, u string, fields map[string]string) page {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	resp, err := c.Post(u, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return read(t, resp)
}

type upload struct {
	field    string
	filename string
	data     []byte
}

func postMultipartFiles(t *testing.T, c *http.Client, u string, fields map[string]string, files []upload) page {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := c.Post(u, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return read(t, resp)
}

func login(t *testing.T, srv *httptest.Server, email string) *http.Client {
	t.Helper()
	c := newClient(t)
	p := postForm(t, c, srv.URL+RouteLogin, url.Values{
		"email":    {email},
		"password": {testutil.TestPassword},
		"next":     {RouteAdmin},
	})
	require.Equal(t, RouteAdmin, p.path, "login should land on the dashboard: %s", p.body)
	return c
}

func TestEndToEndLocalBackend(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)

	anon := newClient(t)

	// Anonymous visitors are sent to the login form.
	p := get(t, anon, srv.URL+RouteAdmin)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Equal(t, RouteLogin, p.path)
	assert.Contains(t, p.body, "後台登入")

	admin := login(t, srv, testutil.AdminEmail)

	// Create a project.
	p = postMultipart(t, admin, srv.URL+RouteProjectNew, map[string]string{
		"slug":     "test-project-123",
		"name":     "測試建案",
		"status":   string(model.StatusPreSale),
		"headline": "全新推出",
		"action":   actionSave,
	})
	require.Equal(t, RouteAdminProjects, p.path, p.body)
	assert.Contains(t, p.body, "建案已新增。")
	assert.Contains(t, p.body, "test-project-123")

	p = get(t, anon, srv.URL+RouteProjects)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "測試建案")

	p = get(t, anon, srv.URL+"/projects/test-project-123")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "全新推出")
	assert.Contains(t, p.body, model.PendingText)

	p = get(t, anon, srv.URL+"/projects/completed-only?status=pre-sale")
	assert.Equal(t, http.StatusNotFound, p.status)

	p = get(t, anon, srv.URL+RouteProjects+"?status=completed")
	assert.NotContains(t, p.body, "測試建案")

	// Submit a lead and read it back as admin.
	p = postForm(t, anon, srv.URL+RouteContact, url.Values{
		"name":    {"王小明"},
		"phone":   {"0912345678"},
		"email":   {"ming@example.com"},
		"message": {"想預約賞屋"},
	})
	assert.Equal(t, RouteContact, p.path)
	assert.Contains(t, p.body, "感謝您的留言")

	p = get(t, admin, srv.URL+RouteLeads)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "王小明")
	assert.Contains(t, p.body, "想預約賞屋")

	// Edit the About subtitle.
	p = postForm(t, admin, srv.URL+RouteContentAbout, url.Values{
		"title":    {"關於向上"},
		"subtitle": {"三十年在地深耕"},
		"version":  {""},
	})
	require.Equal(t, RouteContentAbout, p.path, p.body)
	assert.Contains(t, p.body, "頁面內容已儲存。")

	p = get(t, anon, srv.URL+RouteAbout)
	assert.Contains(t, p.body, "三十年在地深耕")

	// The dashboard lists the sign-in event for admins.
	p = get(t, admin, srv.URL+RouteAdmin)
	assert.Contains(t, p.body, "User signed in")

	// Editors cannot read leads.
	editor := login(t, srv, testutil.EditorEmail)
	p = get(t, editor, srv.URL+RouteLeads)
	assert.Equal(t, http.StatusForbidden, p.status)
	assert.Contains(t, p.body, "權限不足")

	p = get(t, editor, srv.URL+RouteAdminProjects)
	assert.Equal(t, http.StatusOK, p.status)

	// Delete the project.
	p = postForm(t, admin, srv.URL+"/admin/projects/test-project-123/delete", url.Values{})
	assert.Contains(t, p.body, "建案已刪除。")
	p = get(t, anon, srv.URL+"/projects/test-project-123")
	assert.Equal(t, http.StatusNotFound, p.status)

	// Signing out ends the admin session.
	p = postForm(t, admin, srv.URL+RouteLogout, url.Values{})
	assert.Equal(t, RouteLogin, p.path)
	p = get(t, admin, srv.URL+RouteAdmin)
	assert.Equal(t, RouteLogin, p.path)
}

func TestLoginFailures(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)
	c := newClient(t)

	p := postForm(t, c, srv.URL+RouteLogin, url.Values{
		"email":    {testutil.AdminEmail},
		"password": {"wrong-password"},
	})
	assert.Equal(t, http.StatusUnauthorized, p.status)
	assert.Contains(t, p.body, "帳號或密碼錯誤。")
	assert.Contains(t, p.body, testutil.AdminEmail, "email is kept in the form")

	p = postForm(t, c, srv.URL+RouteLogin, url.Values{"email": {testutil.AdminEmail}})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
}

func TestLoginRejectsForeignNext(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)
	c := newClient(t)

	p := postForm(t, c, srv.URL+RouteLogin, url.Values{
		"email":    {testutil.AdminEmail},
		"password": {testutil.TestPassword},
		"next":     {"https://evil.example.com/"},
	})
	assert.Equal(t, RouteAdmin, p.path)
}

func TestAccountWithoutProfile(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)

	c := newClient(t)
	p := postForm(t, c, srv.URL+RouteLogin, url.Values{
		"email":    {testutil.NoRoleEmail},
		"password": {testutil.TestPassword},
	})
	assert.Equal(t, http.StatusForbidden, p.status)
	assert.Contains(t, p.body, "尚未開通後台權限")

	// Logout stays reachable without a profile.
	p = postForm(t, c, srv.URL+RouteLogout, url.Values{})
	assert.Equal(t, http.StatusOK, p.status)
	assert.Equal(t, RouteLogin, p.path)
}

func TestProjectFormValidation(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)
	admin := login(t, srv, testutil.AdminEmail)

	p := postMultipart(t, admin, srv.URL+RouteProjectNew, map[string]string{
		"slug":   "Bad Slug",
		"name":   "格式錯誤",
		"action": actionSave,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Slug 僅能包含")
	assert.Contains(t, p.body, "格式錯誤", "input is preserved")

	// Uploading without a media host is refused before saving.
	p = postMultipart(t, admin, srv.URL+RouteProjectNew, map[string]string{
		"slug":   "no-media",
		"name":   "無圖片空間",
		"action": actionUpload,
	})
	assert.Equal(t, http.StatusOK, p.status)
	p = get(t, admin, srv.URL+"/admin/projects/no-media/edit")
	assert.Equal(t, RouteAdminProjects, p.path, "upload action must not save")
	assert.Contains(t, p.body, "找不到建案。")
}

func TestContactValidationKeepsInput(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)
	c := newClient(t)

	p := postForm(t, c, srv.URL+RouteContact, url.Values{
		"name":  {"陳小姐"},
		"phone": {"0911000111"},
		"email": {"not-an-email"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "請輸入有效的 Email")
	assert.Contains(t, p.body, "陳小姐")
	assert.Contains(t, p.body, "not-an-email")
}

func TestContentVersionConflict(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)
	admin := login(t, srv, testutil.AdminEmail)

	p := postForm(t, admin, srv.URL+RouteContentProjects, url.Values{
		"page_title":       {"建案一覽"},
		"page_description": {"第一版"},
	})
	require.Equal(t, RouteContentProjects, p.path)

	stale := content.FormatVersion(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	p = postForm(t, admin, srv.URL+RouteContentProjects, url.Values{
		"page_title":       {"建案一覽"},
		"page_description": {"過期的編輯"},
		"version":          {stale},
	})
	assert.Equal(t, http.StatusConflict, p.status)
	assert.Contains(t, p.body, "內容已被其他人更新")
	assert.Contains(t, p.body, "過期的編輯")
}

func TestUnconfiguredBackend(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	srv := newTestServer(t, backend.Unconfigured{}, db)
	c := newClient(t)

	p := get(t, c, srv.URL+RouteRoot)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "翠華大道")
	assert.NotContains(t, p.body, "目前無法載入最新資料")

	p = get(t, c, srv.URL+"/projects/harborline")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "港線灣")

	p = get(t, c, srv.URL+"/projects/missing")
	assert.Equal(t, http.StatusNotFound, p.status)

	for _, path := range []string{RouteAdmin, RouteLogin, RouteLeads} {
		p = get(t, c, srv.URL+path)
		assert.Equal(t, http.StatusServiceUnavailable, p.status, path)
		assert.Contains(t, p.body, "後台尚未連線", path)
	}

	resp, err := c.Get(srv.URL + RouteHealth)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var health HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, backend.ModeUnconfigured, health.Backend)
	assert.False(t, health.MediaConfigured)
	assert.Equal(t, "healthy", health.Database)
}

func TestStaticAssets(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	srv := newTestServer(t, backend.Unconfigured{}, db)

	p := get(t, newClient(t), srv.URL+"/static/dist/site.css")
	assert.Equal(t, http.StatusOK, p.status)
	assert.True(t, strings.Contains(p.body, "{"), "stylesheet expected")
}

func TestCrawlerDocuments(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	srv := newTestServer(t, backend.Unconfigured{}, db)
	c := newClient(t)

	p := get(t, c, srv.URL+RouteRobots)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Disallow: /admin")
	assert.Contains(t, p.body, "Sitemap: "+srv.URL+RouteSitemap)

	p = get(t, c, srv.URL+RouteSitemap)
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "<urlset")
	assert.Contains(t, p.body, srv.URL+"/about")
	assert.Contains(t, p.body, srv.URL+"/projects/emerald-lane")
	assert.NotContains(t, p.body, "/admin")
}

func TestLoginAndResetValidation(t *testing.T) {
	local, db := testutil.TestLocal(t)
	srv := newTestServer(t, local, db)
	c := newClient(t)

	p := postForm(t, c, srv.URL+RouteLogin, url.Values{"email": {"not-an-email"}, "password": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "請輸入有效的 Email")

	p = postForm(t, c, srv.URL+RouteForgotPassword, url.Values{"email": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, p.status)
	assert.Contains(t, p.body, "Email為必填欄位")
}
