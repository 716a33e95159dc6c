package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlog/ledger/pkg/kv"
	"github.com/ledgerlog/ledger/pkg/log"
	"github.com/ledgerlog/ledger/pkg/rpc"
	"github.com/ledgerlog/ledger/pkg/types"
)

// Dashboard panel operations. The panel list is embedded on the
// account's dashboard row; mutations rewrite the whole list and drop
// the KV cache entry.

func validPanel(p types.DashboardPanel) error {
	if p.Name == "" {
		return types.NewValidationError("name", "is required")
	}
	if p.ProjectID == 0 {
		return types.NewValidationError("project_id", "is required")
	}
	switch p.Type {
	case types.PanelTypeLogs, types.PanelTypeErrors, types.PanelTypeMetrics:
		return nil
	default:
		return types.NewValidationError("type", "must be logs, errors or metrics")
	}
}

// GetDashboardPanels serves the panel list, cache first
func (s *Server) GetDashboardPanels(ctx context.Context, in *rpc.PanelListRequest) (*rpc.PanelListReply, error) {
	cacheKey := kv.DashboardKey(in.AccountID)

	var cached []types.DashboardPanel
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return &rpc.PanelListReply{Panels: cached}, nil
	}

	panels, err := s.store.GetDashboardPanels(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	ttl := time.Duration(s.ttl.DashboardTTLSeconds) * time.Second
	if err := s.cache.SetJSON(ctx, cacheKey, panels, ttl); err != nil {
		logger := log.WithService("account")
		logger.Warn().Err(err).Msg("failed to cache dashboard panels")
	}
	return &rpc.PanelListReply{Panels: panels}, nil
}

// CreateDashboardPanel appends a panel with a fresh id
func (s *Server) CreateDashboardPanel(ctx context.Context, in *rpc.CreatePanelRequest) (*rpc.PanelReply, error) {
	if err := validPanel(in.Panel); err != nil {
		return nil, rpc.StatusError(err)
	}

	panels, err := s.store.GetDashboardPanels(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	panel := in.Panel
	panel.ID = uuid.NewString()
	panels = append(panels, panel)

	if err := s.storePanels(ctx, in.AccountID, panels); err != nil {
		return nil, err
	}
	return &rpc.PanelReply{Panel: panel}, nil
}

// UpdateDashboardPanel replaces one panel in place
func (s *Server) UpdateDashboardPanel(ctx context.Context, in *rpc.UpdatePanelRequest) (*rpc.PanelReply, error) {
	if err := validPanel(in.Panel); err != nil {
		return nil, rpc.StatusError(err)
	}

	panels, err := s.store.GetDashboardPanels(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	for i := range panels {
		if panels[i].ID == in.PanelID {
			panel := in.Panel
			panel.ID = in.PanelID
			panels[i] = panel
			if err := s.storePanels(ctx, in.AccountID, panels); err != nil {
				return nil, err
			}
			return &rpc.PanelReply{Panel: panel}, nil
		}
	}
	return nil, rpc.StatusError(types.ErrNotFound)
}

// DeleteDashboardPanel removes one panel
func (s *Server) DeleteDashboardPanel(ctx context.Context, in *rpc.DeletePanelRequest) (*rpc.Empty, error) {
	panels, err := s.store.GetDashboardPanels(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}

	kept := panels[:0]
	found := false
	for _, p := range panels {
		if p.ID == in.PanelID {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, rpc.StatusError(types.ErrNotFound)
	}

	if err := s.storePanels(ctx, in.AccountID, kept); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *Server) storePanels(ctx context.Context, accountID int64, panels []types.DashboardPanel) error {
	if err := s.store.PutDashboardPanels(ctx, accountID, panels); err != nil {
		return rpc.StatusError(err)
	}
	if err := s.cache.Delete(ctx, kv.DashboardKey(accountID)); err != nil {
		logger := log.WithService("account")
		logger.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}
	return nil
}

// GetNotificationPreferences serves the per-project delivery rules
func (s *Server) GetNotificationPreferences(ctx context.Context, in *rpc.PreferencesRequest) (*rpc.PreferencesReply, error) {
	prefs, err := s.store.GetNotificationPreferences(ctx, in.AccountID)
	if err != nil {
		return nil, rpc.StatusError(err)
	}
	return &rpc.PreferencesReply{Preferences: prefs}, nil
}

// PutNotificationPreferences stores the per-project delivery rules
func (s *Server) PutNotificationPreferences(ctx context.Context, in *rpc.PutPreferencesRequest) (*rpc.Empty, error) {
	for _, p := range in.Preferences {
		if p.ProjectID == 0 {
			return nil, rpc.StatusError(types.NewValidationError("project_id", "is required"))
		}
	}
	if err := s.store.PutNotificationPreferences(ctx, in.AccountID, in.Preferences); err != nil {
		return nil, rpc.StatusError(err)
	}
	return &rpc.Empty{}, nil
}
