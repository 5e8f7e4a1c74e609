package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/tabtracker/internal/controller"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

type tabIDInput struct {
	TabID int64 `path:"tab_id" doc:"Non-negative tab id assigned by the tracker"`
}

type statePathInput struct {
	TabID int64  `path:"tab_id"`
	Path  string `query:"path" doc:"Dot-separated key path into the tab record, e.g. styleIds.0"`
}

func splitStatePath(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ".")
}

func registerTabHandlers(api huma.API, svc Service) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type listTabsOutput struct {
		Body struct {
			Tabs []controller.TabSummary `json:"tabs"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-tabs", Method: http.MethodGet, Path: "/api/v1/tabs", Summary: "List tracked tabs", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *struct{}) (*listTabsOutput, error) {
			tabs, err := svc.ListTabs(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listTabsOutput{}
			out.Body.Tabs = tabs
			return out, nil
		})

	type getTabOutput struct {
		Body tabstate.Record
	}
	huma.Register(api, huma.Operation{OperationID: "get-tab", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}", Summary: "Get a tab's full state record", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*getTabOutput, error) {
			rec, err := svc.GetTab(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &getTabOutput{Body: rec}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-tab", Method: http.MethodDelete, Path: "/api/v1/tabs/{tab_id}", Summary: "Evict a tab from cache and store", Tags: []string{"Tabs"}},
		func(ctx context.Context, input *tabIDInput) (*struct {
			Body struct {
				Status string `json:"status"`
			}
		}, error) {
			if err := svc.RemoveTab(ctx, input.TabID); err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Status string `json:"status"`
				}
			}{}
			out.Body.Status = "removed"
			return out, nil
		})

	type getStateOutput struct {
		Body controller.StateValue
	}
	huma.Register(api, huma.Operation{OperationID: "get-state", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/state", Summary: "Read a value at a key path", Tags: []string{"State"}},
		func(ctx context.Context, input *statePathInput) (*getStateOutput, error) {
			v, err := svc.GetState(ctx, input.TabID, splitStatePath(input.Path))
			if err != nil {
				return nil, mapErr(err)
			}
			return &getStateOutput{Body: v}, nil
		})

	type setStateInput struct {
		TabID int64 `path:"tab_id"`
		Body  struct {
			Path  []string `json:"path" doc:"Ordered key path into the tab record"`
			Value any      `json:"value" doc:"Value to write at the final key"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-state", Method: http.MethodPut, Path: "/api/v1/tabs/{tab_id}/state", Summary: "Write a value at a key path", Tags: []string{"State"}},
		func(ctx context.Context, input *setStateInput) (*struct {
			Body struct {
				Status string `json:"status"`
			}
		}, error) {
			if err := svc.SetState(ctx, input.TabID, input.Body.Path, input.Body.Value); err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Status string `json:"status"`
				}
			}{}
			out.Body.Status = "set"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-state", Method: http.MethodDelete, Path: "/api/v1/tabs/{tab_id}/state", Summary: "Delete the value at a key path", Tags: []string{"State"}},
		func(ctx context.Context, input *statePathInput) (*struct {
			Body struct {
				Status string `json:"status"`
			}
		}, error) {
			if err := svc.DeleteState(ctx, input.TabID, splitStatePath(input.Path)); err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Status string `json:"status"`
				}
			}{}
			out.Body.Status = "deleted"
			return out, nil
		})

	type styleIDsOutput struct {
		Body controller.StyleReport
	}
	huma.Register(api, huma.Operation{OperationID: "get-style-ids", Method: http.MethodGet, Path: "/api/v1/tabs/{tab_id}/styles", Summary: "Get per-frame style ids for a tab", Tags: []string{"State"}},
		func(ctx context.Context, input *tabIDInput) (*styleIDsOutput, error) {
			report, err := svc.StyleIDs(ctx, input.TabID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &styleIDsOutput{Body: report}, nil
		})
}
