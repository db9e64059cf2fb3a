package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iconic-inc/iconic-erp-sub000/internal/rbac/domain"
)

type rolePayload struct {
	Name   string         `json:"name"`
	Slug   string         `json:"slug"`
	Status string         `json:"status"`
	Grants []domain.Grant `json:"grants"`
}

type roleResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Status    string         `json:"status"`
	Grants    []domain.Grant `json:"grants"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type resourcePayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type resourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toRoleResponse(r *domain.Role) roleResponse {
	return roleResponse{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		Status:    string(r.Status),
		Grants:    r.Grants,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toResourceResponse(r *domain.Resource) resourceResponse {
	return resourceResponse{
		ID:        r.ID,
		Name:      r.Name,
		Slug:      r.Slug,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.roles.List(r.Context())
	if err != nil {
		s.logger.Error("list roles failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateRole creates a role. Any cached permission set for the slug is
// invalidated so the next authorization check sees the new grants.
func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req rolePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	now := time.Now().UTC()
	role := &domain.Role{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Slug:      strings.TrimSpace(req.Slug),
		Status:    domain.RoleStatus(req.Status),
		Grants:    req.Grants,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if role.Status == "" {
		role.Status = domain.RoleStatusActive
	}
	if err := role.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	existing, err := s.roles.GetBySlug(r.Context(), role.Slug)
	if err != nil {
		s.logger.Error("create role failed", "slug", role.Slug, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, ErrCodeConflict, "role slug already exists")
		return
	}

	if err := s.roles.Create(r.Context(), role); err != nil {
		s.logger.Error("create role failed", "slug", role.Slug, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	s.index.Invalidate(role.Slug)

	writeJSON(w, http.StatusCreated, toRoleResponse(role))
}

// handleUpdateRole replaces a role's name, status, and grants.
func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req rolePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	role, err := s.roles.GetBySlug(r.Context(), slug)
	if err != nil {
		s.logger.Error("update role failed", "slug", slug, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "role not found")
		return
	}

	if req.Name != "" {
		role.Name = strings.TrimSpace(req.Name)
	}
	if req.Status != "" {
		role.Status = domain.RoleStatus(req.Status)
	}
	role.Grants = req.Grants
	role.UpdatedAt = time.Now().UTC()
	if err := role.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.roles.Update(r.Context(), role); err != nil {
		s.logger.Error("update role failed", "slug", slug, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	s.index.Invalidate(role.Slug)

	writeJSON(w, http.StatusOK, toRoleResponse(role))
}

func (s *Server) handleListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := s.resources.List(r.Context())
	if err != nil {
		s.logger.Error("list resources failed", "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	out := make([]resourceResponse, 0, len(resources))
	for _, res := range resources {
		out = append(out, toResourceResponse(res))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateResource creates a resource. The whole permission cache is
// invalidated because grants join resources by id and a new slug may now
// resolve.
func (s *Server) handleCreateResource(w http.ResponseWriter, r *http.Request) {
	var req resourcePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	now := time.Now().UTC()
	res := &domain.Resource{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Slug:      strings.TrimSpace(req.Slug),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := res.Validate(); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	existing, err := s.resources.GetBySlug(r.Context(), res.Slug)
	if err != nil {
		s.logger.Error("create resource failed", "slug", res.Slug, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, ErrCodeConflict, "resource slug already exists")
		return
	}

	if err := s.resources.Create(r.Context(), res); err != nil {
		s.logger.Error("create resource failed", "slug", res.Slug, "error", err)
		writeInternalError(w, "internal server error")
		return
	}
	s.index.InvalidateAll()

	writeJSON(w, http.StatusCreated, toResourceResponse(res))
}
