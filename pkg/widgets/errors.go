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

package widgets

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateResource is returned in strict mode when two resources
	// share a URI.
	ErrDuplicateResource = errors.New("duplicate resource URI")

	// ErrDuplicateTool is returned in strict mode when two tools share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// ConfigError reports missing or invalid widget configuration. It is a
// warning: the value returned alongside it is still usable.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("widget config %s: %s", e.Key, e.Message)
}

// DanglingTemplateError reports a tool whose output template names no
// registered resource.
type DanglingTemplateError struct {
	Tool string
	URI  string
}

func (e *DanglingTemplateError) Error() string {
	return fmt.Sprintf("tool %q: output template %q does not match any registered resource", e.Tool, e.URI)
}
