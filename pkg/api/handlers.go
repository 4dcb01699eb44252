package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/yieldworks/compounder/pkg/allocator"
	"github.com/yieldworks/compounder/pkg/compiler"
	"github.com/yieldworks/compounder/pkg/destinations"
	"github.com/yieldworks/compounder/pkg/prefs"
	"github.com/yieldworks/compounder/pkg/service"
)

// writeServiceError maps service-layer sentinels to HTTP problems.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		WriteForbidden(w, err.Error())
	case errors.Is(err, service.ErrUnknownStrategy),
		errors.Is(err, prefs.ErrNotFound),
		errors.Is(err, prefs.ErrNoActiveRecord):
		WriteNotFound(w, err.Error())
	case errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidBlob),
		errors.Is(err, prefs.ErrInvalidPreferences),
		errors.Is(err, destinations.ErrInvalidParams),
		errors.Is(err, allocator.ErrFeeExceedsMaximum):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, compiler.ErrNotImplemented):
		WriteError(w, http.StatusUnprocessableEntity, "Destination Unavailable", err.Error())
	default:
		WriteInternal(w, err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	addr, ok := CallerFrom(r.Context())
	if !ok {
		WriteUnauthorized(w, "Caller identity missing")
	}
	return addr, ok
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]string{"status": "ok"})
}

type submitBody struct {
	Owner           string              `json:"owner"`
	StrategyID      string              `json:"strategy_id"`
	Preferences     prefs.PreferenceSet `json:"preferences"`
	IntegrationBlob json.RawMessage     `json:"integration_blob,omitempty"`
}

func (s *Server) handleSubmitPreferences(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body submitBody
	if !decodeBody(w, r, &body) {
		return
	}
	record, err := s.svc.SubmitPreferences(r.Context(), addr, service.SubmitRequest{
		Owner:           body.Owner,
		StrategyID:      body.StrategyID,
		Preferences:     body.Preferences,
		IntegrationBlob: body.IntegrationBlob,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, record)
}

type cancelBody struct {
	Owner      string `json:"owner"`
	StrategyID string `json:"strategy_id"`
}

func (s *Server) handleCancelPreferences(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body cancelBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.CancelPreferences(r.Context(), addr, body.StrategyID, body.Owner); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"status": "cancelled"})
}

type compoundBody struct {
	Owner       string  `json:"owner"`
	StrategyID  string  `json:"strategy_id"`
	GrossReward int64   `json:"gross_reward"`
	FeeBps      *uint32 `json:"fee_bps,omitempty"`
}

func (s *Server) handleCompound(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body compoundBody
	if !decodeBody(w, r, &body) {
		return
	}
	result, err := s.svc.Compound(r.Context(), addr, service.CompoundRequest{
		Owner:       body.Owner,
		StrategyID:  body.StrategyID,
		GrossReward: body.GrossReward,
		FeeBps:      body.FeeBps,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, result)
}

func (s *Server) handleGrants(w http.ResponseWriter, r *http.Request) {
	strategyID := r.URL.Query().Get("strategy")
	owner := r.URL.Query().Get("owner")
	scopes, err := s.svc.DeriveGrants(r.Context(), strategyID, owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]any{"grants": scopes})
}

func (s *Server) handleRevocations(w http.ResponseWriter, r *http.Request) {
	strategyID := r.URL.Query().Get("strategy")
	owner := r.URL.Query().Get("owner")
	revocations, err := s.svc.DeriveRevocations(r.Context(), strategyID, owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]any{"revocations": revocations})
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, map[string]any{"strategies": s.svc.ListStrategies()})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	strategyID := r.URL.Query().Get("strategy")
	owner := r.URL.Query().Get("owner")
	record, err := s.svc.GetRecord(r.Context(), strategyID, owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, record)
}

func statusFilterFrom(w http.ResponseWriter, r *http.Request) (prefs.StatusFilter, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return prefs.StatusFilter{}, true
	}
	status, err := prefs.ParseStatus(raw)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return prefs.StatusFilter{}, false
	}
	return prefs.StatusFilter{Status: status}, true
}

func limitFrom(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		WriteBadRequest(w, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}

func (s *Server) handleRecordsByStrategy(w http.ResponseWriter, r *http.Request) {
	filter, ok := statusFilterFrom(w, r)
	if !ok {
		return
	}
	limit, ok := limitFrom(w, r)
	if !ok {
		return
	}
	records, err := s.svc.ListByStrategy(r.Context(), r.URL.Query().Get("strategy"), filter, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]any{"records": records})
}

func (s *Server) handleRecordsByOwner(w http.ResponseWriter, r *http.Request) {
	filter, ok := statusFilterFrom(w, r)
	if !ok {
		return
	}
	records, err := s.svc.ListByOwner(r.Context(), r.URL.Query().Get("owner"), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]any{"records": records})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitFrom(w, r)
	if !ok {
		return
	}
	runs, err := s.svc.ListRuns(r.Context(), r.URL.Query().Get("owner"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]any{"runs": runs})
}

type setAdminBody struct {
	NewAdmin string `json:"new_admin"`
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body setAdminBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.SetAdmin(addr, body.NewAdmin); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"status": "ok"})
}

type allowStrategyBody struct {
	StrategyID string                   `json:"strategy_id"`
	Settings   service.StrategySettings `json:"settings"`
}

func (s *Server) handleAllowStrategy(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body allowStrategyBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.AllowStrategy(addr, body.StrategyID, body.Settings); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"status": "ok"})
}

type removeStrategyBody struct {
	StrategyID string `json:"strategy_id"`
}

func (s *Server) handleRemoveStrategy(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body removeStrategyBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.RemoveStrategy(addr, body.StrategyID); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"status": "ok"})
}

type feeConfigBody struct {
	StrategyID string `json:"strategy_id"`
	FeeBps     uint32 `json:"fee_bps"`
	FeeCapBps  uint32 `json:"fee_cap_bps"`
	Recipient  string `json:"recipient"`
}

func (s *Server) handleSetFeeConfig(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body feeConfigBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.svc.SetFeeConfig(addr, body.StrategyID, body.FeeBps, body.FeeCapBps, body.Recipient); err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]string{"status": "ok"})
}

type pruneBody struct {
	Retention string `json:"retention"`
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	addr, ok := caller(w, r)
	if !ok {
		return
	}
	var body pruneBody
	if !decodeBody(w, r, &body) {
		return
	}
	retention, err := time.ParseDuration(body.Retention)
	if err != nil {
		WriteBadRequest(w, "retention must be a duration string (e.g. \"720h\")")
		return
	}
	pruned, err := s.svc.PruneExpired(r.Context(), addr, retention)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	WriteJSON(w, map[string]int{"pruned": pruned})
}
