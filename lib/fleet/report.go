// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package fleet

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// StepResult is the outcome of one step of a best-effort operation.
type StepResult struct {
	Step string
	Err  error
}

// MarshalJSON renders the step for --json output.
func (s StepResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Step  string `json:"step"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}{Step: s.Step, OK: s.Err == nil}
	if s.Err != nil {
		out.Error = s.Err.Error()
	}
	return json.Marshal(out)
}

// Report records every step of a delete or revoke in execution order.
type Report struct {
	Op    string       `json:"operation"`
	Steps []StepResult `json:"steps"`

	logger *slog.Logger
}

func newReport(op string, logger *slog.Logger) *Report {
	return &Report{Op: op, logger: logger}
}

// record appends a step outcome. Failures are logged at Error.
func (r *Report) record(step string, err error) {
	r.Steps = append(r.Steps, StepResult{Step: step, Err: err})
	if err != nil {
		r.logger.Error("step failed", "operation", r.Op, "step", step, "error", err)
		return
	}
	r.logger.Debug("step succeeded", "operation", r.Op, "step", step)
}

// OK reports whether every recorded step succeeded.
func (r *Report) OK() bool {
	for _, step := range r.Steps {
		if step.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the names of the failed steps.
func (r *Report) Failed() []string {
	var failed []string
	for _, step := range r.Steps {
		if step.Err != nil {
			failed = append(failed, step.Step)
		}
	}
	return failed
}

// Err returns nil when every step succeeded, and otherwise a
// PartialFailure [Error] joining each failed step's error.
func (r *Report) Err() error {
	var errs []error
	for _, step := range r.Steps {
		if step.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Step, step.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return newError(PartialFailure, r.Op, errors.Join(errs...))
}
