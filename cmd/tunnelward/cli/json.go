// Copyright 2026 The Tunnelward Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"io"
	"os"
	"reflect"
)

// stdout receives command results. Tests swap it with [SetStdout].
var stdout io.Writer = os.Stdout

// Stdout returns the writer command results go to.
func Stdout() io.Writer { return stdout }

// SetStdout redirects command results to w and returns a function
// restoring the previous writer.
func SetStdout(w io.Writer) (restore func()) {
	previous := stdout
	stdout = w
	return func() { stdout = previous }
}

// JSONOutput adds --json to a parameter struct when embedded.
//
//	type listParams struct {
//	    cli.Globals
//	    cli.JSONOutput
//	}
//
//	if done, err := params.EmitJSON(sessions); done {
//	    return err
//	}
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result to stdout as indented JSON when --json is
// set, reporting done=true. Otherwise it does nothing and the caller
// formats text. Nil slices are written as [].
func (j *JSONOutput) EmitJSON(result any) (done bool, err error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(normalizeNilSlice(result))
}

// WriteJSON writes value to stdout as indented JSON.
func WriteJSON(value any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}
