package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/logging"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/pkg/schema"
)

// workflowKeyAliases maps the camelCase request spellings the admin client
// sends to the snake_case keys used by stored rows and the schema.
var workflowKeyAliases = map[string]string{
	"triggerType":   "trigger_type",
	"triggerConfig": "trigger_config",
	"isActive":      "is_active",
}

func normalizeWorkflowKeys(doc map[string]any) map[string]any {
	for from, to := range workflowKeyAliases {
		if v, ok := doc[from]; ok {
			if _, exists := doc[to]; !exists {
				doc[to] = v
			}
			delete(doc, from)
		}
	}
	return doc
}

// workflowBody is the request shape for workflow create and update.
type workflowBody struct {
	Name          *string               `json:"name"`
	Description   *string               `json:"description"`
	TriggerType   *string               `json:"trigger_type"`
	TriggerConfig *schema.TriggerConfig `json:"trigger_config"`
	Actions       *[]schema.ActionStep  `json:"actions"`
	IsActive      *bool                 `json:"is_active"`
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	doc = normalizeWorkflowKeys(doc)
	if err := s.deps.Validator.ValidateWorkflow(doc); err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	var body workflowBody
	if err := json.Unmarshal(normalized, &body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	wf := &store.Workflow{
		ID:          uuid.NewString(),
		UserID:      logging.UserID(ctx),
		Name:        deref(body.Name),
		Description: deref(body.Description),
		TriggerType: deref(body.TriggerType),
		IsActive:    true,
	}
	if body.TriggerConfig != nil {
		wf.TriggerConfig = *body.TriggerConfig
	}
	if body.Actions != nil {
		wf.Actions = *body.Actions
	}
	if body.IsActive != nil {
		wf.IsActive = *body.IsActive
	}

	if err := s.deps.Store.CreateWorkflow(ctx, wf); err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, wf)
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := store.WorkflowFilter{
		UserID:      logging.UserID(ctx),
		ActiveOnly:  r.URL.Query().Get("active_only") == "true",
		TriggerType: r.URL.Query().Get("trigger_type"),
		Limit:       queryInt(r, "limit", 0),
	}

	workflows, err := s.deps.Store.ListWorkflows(ctx, filter)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, workflows)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wf, err := s.deps.Store.GetWorkflow(ctx, chi.URLParam(r, "id"), logging.UserID(ctx))
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var doc map[string]any
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	normalized, err := json.Marshal(normalizeWorkflowKeys(doc))
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	var body workflowBody
	if err := json.Unmarshal(normalized, &body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	update := store.WorkflowUpdate{
		Name:          body.Name,
		Description:   body.Description,
		TriggerType:   body.TriggerType,
		TriggerConfig: body.TriggerConfig,
		Actions:       body.Actions,
		IsActive:      body.IsActive,
	}

	if err := s.deps.Store.UpdateWorkflow(ctx, id, logging.UserID(ctx), update); err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}

	wf, err := s.deps.Store.GetWorkflow(ctx, id, logging.UserID(ctx))
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, wf)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.deps.Store.DeleteWorkflow(ctx, chi.URLParam(r, "id"), logging.UserID(ctx)); err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "workflow deleted", nil)
}

func (s *Server) handleTestWorkflow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := logging.UserID(ctx)

	wf, err := s.deps.Store.GetWorkflow(ctx, chi.URLParam(r, "id"), uid)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}

	var body struct {
		EventType string         `json:"eventType"`
		Context   map[string]any `json:"context"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.EventType == "" {
		body.EventType = wf.TriggerType
	}
	if body.Context == nil {
		body.Context = map[string]any{}
	}

	matched, err := s.deps.Engine.MatchTrigger(ctx, wf, body.EventType, body.Context)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	if !matched {
		writeMessage(w, http.StatusOK, "trigger did not match",
			map[string]int{"actionsQueued": 0})
		return
	}

	queued, err := s.deps.Engine.RunWorkflow(ctx, wf, uid, body.Context)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "workflow executed",
		map[string]int{"actionsQueued": queued})
}

func (s *Server) handleQueueAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		ActionType string         `json:"actionType"`
		Payload    map[string]any `json:"payload"`
		SessionID  string         `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if body.ActionType == "" {
		writeErrorMsg(w, http.StatusBadRequest, "actionType is required")
		return
	}

	action, err := s.deps.Executor.Queue(ctx, executor.QueueRequest{
		UserID:     logging.UserID(ctx),
		SessionID:  body.SessionID,
		ActionType: body.ActionType,
		Payload:    body.Payload,
	})
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusCreated, action)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actionType := r.URL.Query().Get("action_type")
	if actionType == "" {
		actionType = r.URL.Query().Get("actionType")
	}
	filter := store.ActionFilter{
		UserID:     logging.UserID(ctx),
		Status:     schema.ActionStatus(r.URL.Query().Get("status")),
		ActionType: actionType,
		Limit:      queryInt(r, "limit", 50),
	}

	actions, err := s.deps.Store.ListActions(ctx, filter)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, actions)
}

func (s *Server) handleGetAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	action, err := s.deps.Store.GetAction(ctx, chi.URLParam(r, "id"), logging.UserID(ctx))
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, action)
}

func (s *Server) handleExecutePending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Limit int `json:"limit"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Limit <= 0 {
		body.Limit = 50
	}

	count, err := s.deps.Executor.ExecutePending(ctx, body.Limit)
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("executed %d pending actions", count),
		map[string]int{"executed": count})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tasks, err := s.deps.Store.ListTasks(ctx, logging.UserID(ctx), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, tasks)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notifs, err := s.deps.Store.ListNotifications(ctx, logging.UserID(ctx), queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, r, s.deps.Logger, err)
		return
	}
	writeData(w, http.StatusOK, notifs)
}

// queryInt extracts an integer query param with a default value.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
