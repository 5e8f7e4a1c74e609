package controller

import (
	"context"
	"sort"

	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

// TabSummary describes one tracked tab for listing.
type TabSummary struct {
	TabID int64  `json:"tab_id"`
	URL   string `json:"url,omitempty"`
}

// StyleReport is the styleIds lookup result. Tracked false is the "never
// tracked" sentinel; a tracked tab without style data reports Tracked true
// with a nil map.
type StyleReport struct {
	Tracked  bool           `json:"tracked"`
	StyleIDs map[string]any `json:"style_ids,omitempty"`
}

// StateValue is a path lookup result. Exists false means the tab or some
// intermediate key is missing; that is not an error.
type StateValue struct {
	Exists bool `json:"exists"`
	Value  any  `json:"value,omitempty"`
}

// Service exposes tab-state operations to the HTTP API.
type Service struct {
	cache *tabstate.Cache
}

func NewService(cache *tabstate.Cache) *Service {
	return &Service{cache: cache}
}

func requireTabID(tabID int64) error {
	if tabID < 0 {
		return &tabstate.CodedError{Code: tabstate.CodeValidation, Message: "tab_id must be non-negative"}
	}
	return nil
}

func requirePath(path []string) error {
	if len(path) == 0 {
		return &tabstate.CodedError{Code: tabstate.CodeValidation, Message: "path must contain at least one key"}
	}
	for _, key := range path {
		if key == "" {
			return &tabstate.CodedError{Code: tabstate.CodeValidation, Message: "path keys must be non-empty"}
		}
	}
	return nil
}

func (s *Service) ListTabs(ctx context.Context) ([]TabSummary, error) {
	_ = ctx
	entries := s.cache.Entries()
	out := make([]TabSummary, 0, len(entries))
	for id, rec := range entries {
		url, _ := rec[tabstate.KeyURL].(string)
		out = append(out, TabSummary{TabID: id, URL: url})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TabID < out[j].TabID })
	return out, nil
}

func (s *Service) GetTab(ctx context.Context, tabID int64) (tabstate.Record, error) {
	_ = ctx
	if err := requireTabID(tabID); err != nil {
		return nil, err
	}
	v, ok := s.cache.Get(tabID)
	if !ok {
		return nil, &tabstate.CodedError{Code: tabstate.CodeTabNotFound, Message: "tab is not tracked"}
	}
	return v.(tabstate.Record), nil
}

func (s *Service) GetState(ctx context.Context, tabID int64, path []string) (StateValue, error) {
	_ = ctx
	if err := requireTabID(tabID); err != nil {
		return StateValue{}, err
	}
	if err := requirePath(path); err != nil {
		return StateValue{}, err
	}
	v, ok := s.cache.Get(tabID, path...)
	if !ok {
		return StateValue{}, nil
	}
	return StateValue{Exists: true, Value: v}, nil
}

func (s *Service) SetState(ctx context.Context, tabID int64, path []string, value any) error {
	_ = ctx
	if err := requireTabID(tabID); err != nil {
		return err
	}
	if err := requirePath(path); err != nil {
		return err
	}
	s.cache.Set(tabID, value, path...)
	return nil
}

func (s *Service) DeleteState(ctx context.Context, tabID int64, path []string) error {
	_ = ctx
	if err := requireTabID(tabID); err != nil {
		return err
	}
	if err := requirePath(path); err != nil {
		return err
	}
	s.cache.DeleteAt(tabID, path...)
	return nil
}

func (s *Service) StyleIDs(ctx context.Context, tabID int64) (StyleReport, error) {
	_ = ctx
	if err := requireTabID(tabID); err != nil {
		return StyleReport{}, err
	}
	ids, tracked := s.cache.StyleIDs(tabID)
	return StyleReport{Tracked: tracked, StyleIDs: ids}, nil
}

func (s *Service) RemoveTab(ctx context.Context, tabID int64) error {
	_ = ctx
	if err := requireTabID(tabID); err != nil {
		return err
	}
	s.cache.Remove(tabID)
	return nil
}
