package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/swizzylabs/swizzy-cli/engine"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

type createParams struct {
	Name string          `json:"name"`
	Spec json.RawMessage `json:"spec"`
}

func (s *Server) handleCreate(ctx context.Context, params json.RawMessage) (any, error) {
	var p createParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	spec, err := workbook.ParseCreateSpec(p.Spec)
	if err != nil {
		return nil, err
	}
	wb, err := workbook.BuildFromSpec(spec)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	data, err := wb.SaveBytes()
	if err != nil {
		return nil, err
	}
	handle, err := s.store.Upload(p.Name, data)
	if err != nil {
		return nil, err
	}
	return map[string]any{"handle": handle}, nil
}

type applyParams struct {
	Handle     string          `json:"handle"`
	Operations json.RawMessage `json:"operations"`
	Atomic     bool            `json:"atomic"`
}

func (s *Server) handleApply(ctx context.Context, params json.RawMessage) (any, error) {
	var p applyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	wb, batch, err := s.loadBatch(p.Handle, p.Operations)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	results, err := engine.Apply(wb, batch)
	if err != nil {
		return nil, err
	}

	saved := true
	if p.Atomic && results.HasErrors() {
		saved = false
	} else {
		data, err := wb.SaveBytes()
		if err != nil {
			return nil, err
		}
		if _, err := s.store.Upload(p.Handle, data); err != nil {
			return nil, err
		}
	}
	return map[string]any{
		"handle":  p.Handle,
		"results": results,
		"saved":   saved,
	}, nil
}

// handleAnalyze runs a batch without persisting the workbook, so
// analysis calls never mutate the stored file.
func (s *Server) handleAnalyze(ctx context.Context, params json.RawMessage) (any, error) {
	var p applyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	wb, batch, err := s.loadBatch(p.Handle, p.Operations)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	results, err := engine.Apply(wb, batch)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results}, nil
}

func (s *Server) loadBatch(handle string, operations json.RawMessage) (*workbook.Workbook, engine.Batch, error) {
	if handle == "" {
		return nil, engine.Batch{}, fmt.Errorf("handle is required")
	}
	data, err := s.store.Download(handle)
	if err != nil {
		return nil, engine.Batch{}, err
	}
	wb, err := workbook.Load(data)
	if err != nil {
		return nil, engine.Batch{}, err
	}
	batch, err := engine.ParseBatch(operations)
	if err != nil {
		wb.Close()
		return nil, engine.Batch{}, err
	}
	return wb, batch, nil
}

type scriptRunParams struct {
	Script    string         `json:"script"`
	InputData map[string]any `json:"input_data"`
	TimeoutMS int            `json:"timeout_ms"`
}

func (s *Server) handleScriptRun(ctx context.Context, params json.RawMessage) (any, error) {
	var p scriptRunParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if p.Script == "" {
		return nil, fmt.Errorf("script is required")
	}

	executor := *s.executor
	if p.TimeoutMS > 0 {
		executor.Timeout = time.Duration(p.TimeoutMS) * time.Millisecond
	}
	return executor.Run(ctx, p.Script, p.InputData), nil
}
