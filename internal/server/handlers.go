package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"autodeploy/internal/deployment"
	"autodeploy/internal/history"
	"autodeploy/internal/notify"
	"autodeploy/internal/project"
	"autodeploy/internal/security"
	"autodeploy/internal/target"
)

const MaxPayloadBytes = 64 * 1024

// DeployRequest is the body of POST /deploy. It carries what the terminal
// views would otherwise ask for.
type DeployRequest struct {
	Selected   []string    `json:"selected"`
	Active     string      `json:"active"`
	Target     target.Info `json:"target"`
	Cancel     bool        `json:"cancel"`
	NewProject bool        `json:"new_project"`
}

// DeployResponse reports the outcome of one orchestrated run.
type DeployResponse struct {
	ID              string              `json:"id"`
	State           deployment.State    `json:"state"`
	Workflow        deployment.Workflow `json:"workflow,omitempty"`
	Location        string              `json:"location,omitempty"`
	HistoryRecorded bool                `json:"history_recorded"`
	Warnings        []string            `json:"warnings"`
	Errors          []string            `json:"errors"`
}

// HandleDeploy runs the orchestrator with a view backed by the request body.
func (s *Server) HandleDeploy(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > MaxPayloadBytes {
		s.respondJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "Payload too large"})
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		s.respondJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "Invalid content type"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxPayloadBytes))
	if err != nil {
		s.Logger.Error("Failed to read request body", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read payload"})
		return
	}

	var req DeployRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
		return
	}
	selection := project.StaticSelection{
		Selected: project.NewSelection(req.Selected...),
		Active:   req.Active,
	}
	// Without a selection the orchestrator warns before any target is used.
	if !req.Cancel && hasSelection(selection) {
		if err := s.completeTarget(&req.Target); err != nil {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	collector := notify.NewCollector()
	orch, err := deployment.NewOrchestrator(deployment.Options{
		Selection:   selection,
		Views:       s.requestViews(req),
		History:     s.History,
		Notifier:    collector,
		Diagnostics: notify.NewLogger(s.Logger),
		Logger:      s.Logger.With("request_id", middleware.GetReqID(r.Context())),
		BasePath:    s.BasePath,
		Locks:       s.LockManager,
	})
	if err != nil {
		s.Logger.Error("Failed to create orchestrator", "error", err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Deployment unavailable"})
		return
	}

	outcome := orch.Run(r.Context())

	status := http.StatusOK
	if errors.Is(outcome.Err, deployment.ErrBusy) {
		status = http.StatusConflict
	}

	s.respondJSON(w, status, DeployResponse{
		ID:              outcome.ID,
		State:           outcome.State,
		Workflow:        outcome.Workflow,
		Location:        outcome.Location,
		HistoryRecorded: outcome.HistoryRecorded,
		Warnings:        collector.Warnings(),
		Errors:          collector.Errors(),
	})
}

// completeTarget fills an inherited target from the workspace default and
// validates the name.
func (s *Server) completeTarget(info *target.Info) error {
	if info.Inherit && s.DefaultTarget != nil {
		if info.Name == "" {
			info.Name = s.DefaultTarget.Name
		}
		if info.Path == "" {
			info.Path = s.DefaultTarget.Path
		}
	}
	return info.Validate()
}

func hasSelection(selection project.StaticSelection) bool {
	if selection.SelectedProjects().Len() > 0 {
		return true
	}
	_, ok := selection.ActiveProject()
	return ok
}

func (s *Server) requestViews(req DeployRequest) deployment.ViewFactory {
	return func(kind deployment.Workflow, selection project.Selection) (deployment.View, error) {
		projects, err := s.Registry.Resolve(selection)
		if err != nil {
			return nil, err
		}
		return &requestView{
			server:   s,
			req:      req,
			projects: projects,
			nested:   kind == deployment.WorkflowMulti,
		}, nil
	}
}

// requestView answers the modal step from a DeployRequest.
type requestView struct {
	server   *Server
	req      DeployRequest
	projects []*project.Project
	nested   bool
}

func (v *requestView) LoadData(ctx context.Context) error {
	return ctx.Err()
}

func (v *requestView) ShowModal(ctx context.Context) (deployment.Result, error) {
	if v.req.Cancel {
		return deployment.Cancelled(), nil
	}

	result := deployment.Result{Target: v.req.Target, Confirmed: true, NewProject: v.req.NewProject}
	if v.server.Copier == nil {
		return result, nil
	}

	location, err := v.req.Target.Resolve(v.server.BasePath)
	if err != nil {
		return result, nil
	}
	for _, proj := range v.projects {
		destination := location
		if v.nested {
			destination = filepath.Join(location, proj.Name)
		}
		copied, err := v.server.Copier.CopyOutput(ctx, proj, destination)
		if err != nil {
			return deployment.Result{}, fmt.Errorf("failed to deploy project '%s': %w", proj.Name, err)
		}
		v.server.Logger.Info("Output copied",
			"project", copied.Project,
			"destination", copied.Destination,
			"files", copied.Files,
			"duration_ms", copied.Duration.Milliseconds())
	}
	return result, nil
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":        "ok",
		"projects":      s.Registry.List(),
		"project_count": s.Registry.Count(),
	}

	s.respondJSON(w, http.StatusOK, response)
}

// HandleHistoryList returns every target name with remembered locations.
func (s *Server) HandleHistoryList(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"targets":     s.History.Names(),
		"max_entries": s.History.MaxEntries(),
	})
}

// HandleHistoryShow returns the locations remembered for one target, most
// recent first.
func (s *Server) HandleHistoryShow(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "targetName")

	if err := security.ValidateName(name); err != nil {
		s.Logger.Warn("Invalid target name in history request", "target", name, "error", err)
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid target name: %v", err)})
		return
	}

	locations := s.History.LocationsFor(name)
	if len(locations) == 0 {
		s.respondJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown target"})
		return
	}

	s.respondJSON(w, http.StatusOK, history.TargetLocations{
		Name:      name,
		Locations: locations,
	})
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("Failed to encode JSON response", "error", err)
	}
}
