// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateRequest checks the JSON-RPC envelope of an incoming request.
func ValidateRequest(req *Request) error {
	if req.JSONRPC != JSONRPCVersion {
		return fmt.Errorf("invalid jsonrpc version: %s (expected %s)", req.JSONRPC, JSONRPCVersion)
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	return nil
}

// ValidateToolArguments validates call arguments against the tool's input
// schema. A tool without a schema accepts anything. Missing arguments are
// validated as an empty object.
func ValidateToolArguments(tool Tool, arguments map[string]interface{}) error {
	if len(tool.InputSchema) == 0 {
		return nil
	}
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	if err := validateAgainst(tool.InputSchema, arguments); err != nil {
		return fmt.Errorf("invalid arguments for %s: %w", tool.Name, err)
	}
	return nil
}

// ValidateStructuredContent validates a tool result's structured content
// against the tool's output schema. Results without structured content and
// tools without an output schema always pass.
func ValidateStructuredContent(tool Tool, result *CallToolResult) error {
	if len(tool.OutputSchema) == 0 || result == nil || result.StructuredContent == nil {
		return nil
	}
	if err := validateAgainst(tool.OutputSchema, result.StructuredContent); err != nil {
		return fmt.Errorf("invalid structured content from %s: %w", tool.Name, err)
	}
	return nil
}

func validateAgainst(schema map[string]interface{}, doc interface{}) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
