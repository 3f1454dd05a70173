// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/listing"
	"github.com/olegiv/uphouse/internal/media"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/render"
)

// Form actions of the project editor.
const (
	actionSave         = "save"
	actionUpload       = "upload"
	actionRemovePrefix = "remove-"
)

// ProjectsHandler manages projects in the admin panel.
type ProjectsHandler struct {
	renderer   *render.Renderer
	projects   *listing.Projects
	media      media.Gateway
	mediaReady bool
	maxWidth   int
	logger     *slog.Logger
}

// NewProjectsHandler creates a new ProjectsHandler. With mediaReady false
// only image URLs can be entered.
func NewProjectsHandler(renderer *render.Renderer, projects *listing.Projects, gw media.Gateway, mediaReady bool, maxWidth int, logger *slog.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		renderer:   renderer,
		projects:   projects,
		media:      gw,
		mediaReady: mediaReady,
		maxWidth:   maxWidth,
		logger:     logger,
	}
}

// ProjectListData is the view model of the admin project list.
type ProjectListData struct {
	Projects []model.Project
	Error    string
}

// List handles GET /admin/projects.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	data := ProjectListData{}
	projects, err := h.projects.List(r.Context(), principalOf(r), listing.Filter{})
	if err != nil {
		h.logger.Error("failed to list projects", "error", err)
		data.Error = errorText(err)
	}
	data.Projects = projects

	renderPage(w, r, h.renderer, "admin/projects", adminData(r, "建案管理", "projects", data))
}

// ProjectFormData is the view model of the project editor.
type ProjectFormData struct {
	IsNew       bool
	Action      string
	Error       string
	Field       string
	MediaReady  bool
	Project     *model.Project
	Statuses    []model.ProjectStatus
	GalleryText string
	Gallery     []model.GalleryItem
	Latitude    string
	Longitude   string
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (h *ProjectsHandler) formData(project *model.Project, isNew bool) ProjectFormData {
	action := RouteProjectNew
	if !isNew {
		action = "/admin/projects/" + project.Slug + "/edit"
	}
	gallery := project.GalleryItems()
	urls := make([]string, 0, len(gallery))
	for _, item := range gallery {
		urls = append(urls, item.URL)
	}
	return ProjectFormData{
		IsNew:       isNew,
		Action:      action,
		MediaReady:  h.mediaReady,
		Project:     project,
		Statuses:    model.ProjectStatuses(),
		GalleryText: strings.Join(urls, "\n"),
		Gallery:     gallery,
		Latitude:    formatCoordinate(project.Latitude),
		Longitude:   formatCoordinate(project.Longitude),
	}
}

func (h *ProjectsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data ProjectFormData) {
	title := "編輯建案"
	if data.IsNew {
		title = "新增建案"
	}
	renderPageStatus(w, r, h.renderer, status, "admin/project-form", adminData(r, title, "projects", data))
}

// NewForm handles GET /admin/projects/new.
func (h *ProjectsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	project := &model.Project{Status: model.StatusPreSale}
	h.renderForm(w, r, http.StatusOK, h.formData(project, true))
}

// EditForm handles GET /admin/projects/{slug}/edit.
func (h *ProjectsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	project, err := h.projects.Get(r.Context(), principalOf(r), slug)
	if err != nil {
		h.logger.Error("failed to load project", "slug", slug, "error", err)
		flashError(w, r, h.renderer, redirectAdminProjects, "無法載入建案："+errorText(err))
		return
	}
	if project == nil {
		flashError(w, r, h.renderer, redirectAdminProjects, "找不到建案。")
		return
	}

	h.renderForm(w, r, http.StatusOK, h.formData(project, false))
}

// Create handles POST /admin/projects/new.
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, nil)
}

// Update handles POST /admin/projects/{slug}/edit.
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	existing, err := h.projects.Get(r.Context(), principalOf(r), slug)
	if err != nil {
		h.logger.Error("failed to load project", "slug", slug, "error", err)
		flashError(w, r, h.renderer, redirectAdminProjects, "無法載入建案："+errorText(err))
		return
	}
	if existing == nil {
		flashError(w, r, h.renderer, redirectAdminProjects, "找不到建案。")
		return
	}

	h.submit(w, r, existing)
}

// submit handles both project forms. existing is nil for a new project.
func (h *ProjectsHandler) submit(w http.ResponseWriter, r *http.Request, existing *model.Project) {
	isNew := existing == nil

	r.Body = http.MaxBytesReader(w, r.Body, maxProjectFormSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.logger.Warn("failed to parse project form", "error", err)
		http.Error(w, "表單資料過大或格式錯誤", http.StatusBadRequest)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	project, formErr := projectFromForm(r, existing)
	data := h.formData(&project, isNew)
	data.Latitude = formField(r, "latitude")
	data.Longitude = formField(r, "longitude")

	action := r.PostFormValue("action")
	if idx, ok := strings.CutPrefix(action, actionRemovePrefix); ok {
		if i, err := strconv.Atoi(idx); err == nil {
			project.RemoveGalleryAt(i)
		}
		h.renderForm(w, r, http.StatusOK, h.refresh(data, &project))
		return
	}

	if err := h.uploadImages(r, &project); err != nil {
		data = h.refresh(data, &project)
		data.Error = errorText(err)
		data.Field = errorField(err)
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	if action == actionUpload {
		h.renderForm(w, r, http.StatusOK, h.refresh(data, &project))
		return
	}

	if formErr != nil {
		data = h.refresh(data, &project)
		data.Error = errorText(formErr)
		data.Field = errorField(formErr)
		h.renderForm(w, r, http.StatusUnprocessableEntity, data)
		return
	}

	p := principalOf(r)
	if isNew {
		taken, err := h.projects.Get(r.Context(), p, strings.TrimSpace(project.Slug))
		if err == nil && taken != nil {
			err = backend.NewValidationError("slug", "Slug「%s」已被其他建案使用。", taken.Slug)
		}
		if err != nil {
			data = h.refresh(data, &project)
			data.Error = errorText(err)
			data.Field = errorField(err)
			h.renderForm(w, r, statusFor(err), data)
			return
		}
	}

	saved, err := h.projects.Upsert(r.Context(), p, project)
	if err != nil {
		h.logger.Warn("failed to save project", "slug", project.Slug, "user_id", p.UserID, "error", err)
		data = h.refresh(data, &project)
		data.Error = errorText(err)
		data.Field = errorField(err)
		h.renderForm(w, r, statusFor(err), data)
		return
	}

	if isNew {
		h.logger.Info("project created", "slug", saved.Slug, "user_id", p.UserID)
		flashSuccess(w, r, h.renderer, redirectAdminProjects, "建案已新增。")
		return
	}
	h.logger.Info("project updated", "slug", saved.Slug, "user_id", p.UserID)
	flashSuccess(w, r, h.renderer, redirectAdminProjects, "建案已更新。")
}

// refresh recomputes the gallery fields of data after project changed.
func (h *ProjectsHandler) refresh(data ProjectFormData, project *model.Project) ProjectFormData {
	fresh := h.formData(project, data.IsNew)
	fresh.Action = data.Action
	fresh.Latitude = data.Latitude
	fresh.Longitude = data.Longitude
	return fresh
}

// statusFor maps a save failure to a response status.
func statusFor(err error) int {
	switch {
	case backend.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, backend.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

// projectFromForm builds the submitted project on top of existing. The
// slug of an existing project cannot change. The returned error reports
// the first invalid field; the project is filled in regardless.
func projectFromForm(r *http.Request, existing *model.Project) (model.Project, error) {
	var project model.Project
	if existing != nil {
		project = *existing
	} else {
		project.Slug = formField(r, "slug")
	}

	project.Name = formField(r, "name")
	project.Headline = formField(r, "headline")
	project.Location = formField(r, "location")
	project.AreaRange = formField(r, "area_range")
	project.UnitType = formField(r, "unit_type")
	project.PriceRange = formField(r, "price_range")
	project.LaunchDate = formField(r, "launch_date")
	project.Description = formField(r, "description")
	project.ContactPhone = formField(r, "contact_phone")
	project.Address = formField(r, "address")
	project.Highlights = model.SplitLines(r.PostFormValue("highlights"))
	project.IsFeatured = r.PostFormValue("is_featured") == "true"

	project.Status = model.StatusPreSale
	if status, ok := model.ParseProjectStatus(r.PostFormValue("status")); ok {
		project.Status = status
	}

	// The hero token is kept only while the URL is unchanged.
	project.HeroImage = formField(r, "hero_image_previous")
	project.HeroImageDeleteToken = formField(r, "hero_image_delete_token")
	project.SetHeroURL(r.PostFormValue("hero_image"))

	project.SetGallery(galleryFromForm(r))
	project.ReplaceGalleryURLs(model.SplitLines(r.PostFormValue("gallery")))

	lat, latErr := listing.ParseCoordinate("latitude", formField(r, "latitude"), 90)
	lng, lngErr := listing.ParseCoordinate("longitude", formField(r, "longitude"), 180)
	project.Latitude, project.Longitude = lat, lng

	return project, errors.Join(latErr, lngErr)
}

// galleryFromForm pairs the hidden gallery_url and gallery_token fields.
func galleryFromForm(r *http.Request) []model.GalleryItem {
	urls := r.PostForm["gallery_url"]
	tokens := r.PostForm["gallery_token"]

	items := make([]model.GalleryItem, 0, len(urls))
	for i, url := range urls {
		item := model.GalleryItem{URL: url}
		if i < len(tokens) {
			item.DeleteToken = tokens[i]
		}
		items = append(items, item)
	}
	return items
}

// uploadImages uploads the attached hero and gallery files and records the
// results on project. Assets uploaded before a failure are kept.
func (h *ProjectsHandler) uploadImages(r *http.Request, project *model.Project) error {
	heroFiles, err := h.readFiles(r, "hero_file")
	if err != nil {
		return err
	}
	galleryFiles, err := h.readFiles(r, "gallery_files")
	if err != nil {
		return err
	}
	if len(heroFiles) == 0 && len(galleryFiles) == 0 {
		return nil
	}
	if !h.mediaReady {
		return backend.NewValidationError("image", "尚未設定圖片空間，無法上傳圖片。")
	}

	slug := strings.TrimSpace(project.Slug)
	name := media.AssetName(project.Name)
	ctx := r.Context()

	if len(heroFiles) > 0 {
		opts := media.Options{Name: name}
		if slug != "" {
			opts.Folder = media.HeroFolder(slug)
		}
		asset, err := h.media.Upload(ctx, heroFiles[0], opts)
		if err != nil {
			h.logger.Warn("hero upload failed", "slug", slug, "error", err)
			return uploadError(err)
		}
		project.HeroImage = asset.URL
		project.HeroImageDeleteToken = asset.DeleteToken
		h.logger.Info("hero image uploaded", "slug", slug, "url", asset.URL)
	}

	if len(galleryFiles) > 0 {
		opts := media.Options{Name: name}
		if slug != "" {
			opts.Folder = media.GalleryFolder(slug)
		}
		assets, err := media.UploadAll(ctx, h.media, galleryFiles, opts)
		for _, a := range assets {
			project.AppendGallery(a.URL, a.DeleteToken)
		}
		if err != nil {
			h.logger.Warn("gallery upload failed", "slug", slug, "uploaded", len(assets), "error", err)
			return uploadError(err)
		}
		h.logger.Info("gallery images uploaded", "slug", slug, "count", len(assets))
	}
	return nil
}

func uploadError(err error) error {
	if errors.Is(err, media.ErrNotConfigured) {
		return backend.NewValidationError("image", "尚未設定圖片空間，無法上傳圖片。")
	}
	var me *media.Error
	if errors.As(err, &me) {
		return backend.NewValidationError("image", "上傳失敗：%s", me.Message)
	}
	return backend.NewValidationError("image", "上傳失敗，請稍後再試。")
}

// readFiles reads and prepares the files posted under field. Empty file
// inputs are skipped.
func (h *ProjectsHandler) readFiles(r *http.Request, field string) ([]media.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var files []media.File
	for _, fh := range r.MultipartForm.File[field] {
		if fh.Filename == "" || fh.Size == 0 {
			continue
		}
		data, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		f, err := media.Prepare(media.File{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		}, h.maxWidth)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > media.MaxUploadSize {
		return nil, backend.NewValidationError("image", "圖片大小不可超過 %d MB", media.MaxUploadSize>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, media.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", fh.Filename, err)
	}
	return data, nil
}

// Delete handles POST /admin/projects/{slug}/delete.
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p := principalOf(r)

	if err := h.projects.Delete(r.Context(), p, slug); err != nil {
		h.logger.Error("failed to delete project", "slug", slug, "user_id", p.UserID, "error", err)
		flashError(w, r, h.renderer, redirectAdminProjects, "刪除失敗："+errorText(err))
		return
	}

	h.logger.Info("project deleted", "slug", slug, "user_id", p.UserID)
	flashSuccess(w, r, h.renderer, redirectAdminProjects, "建案已刪除。")
}
