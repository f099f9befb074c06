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
	"encoding/json"
	"strings"
)

// Apps SDK widget constants. Chat clients render a tool's result with the
// HTML resource named by the tool's output template.
const (
	// WidgetMIME is the MIME type for widget HTML resources.
	WidgetMIME = "text/html+skybridge"

	// WidgetScheme is the URI prefix for widget resources.
	WidgetScheme = "ui://widget/"

	MetaOutputTemplate   = "openai/outputTemplate"
	MetaInvoking         = "openai/toolInvocation/invoking"
	MetaInvoked          = "openai/toolInvocation/invoked"
	MetaWidgetAccessible = "openai/widgetAccessible"
	MetaWidgetCSP        = "openai/widgetCSP"
	MetaWidgetDomain     = "openai/widgetDomain"
)

// WidgetURI returns the resource URI for a content-addressed widget id.
func WidgetURI(resourceID string) string {
	return WidgetScheme + resourceID
}

// IsWidgetURI reports whether uri uses the widget scheme.
func IsWidgetURI(uri string) bool {
	return strings.HasPrefix(uri, WidgetScheme)
}

// WidgetCSP is the Content Security Policy block of a widget resource.
// Both lists are always encoded, as [] when empty.
type WidgetCSP struct {
	ConnectDomains  []string `json:"connect_domains"`
	ResourceDomains []string `json:"resource_domains"`
}

// MarshalJSON keeps nil slices from encoding as null.
func (c WidgetCSP) MarshalJSON() ([]byte, error) {
	type plain WidgetCSP
	out := plain(c)
	if out.ConnectDomains == nil {
		out.ConnectDomains = []string{}
	}
	if out.ResourceDomains == nil {
		out.ResourceDomains = []string{}
	}
	return json.Marshal(out)
}

// WidgetToolMeta is the widget-related part of a tool's _meta field.
type WidgetToolMeta struct {
	OutputTemplate   string `json:"openai/outputTemplate,omitempty"`
	Invoking         string `json:"openai/toolInvocation/invoking,omitempty"`
	Invoked          string `json:"openai/toolInvocation/invoked,omitempty"`
	WidgetAccessible bool   `json:"openai/widgetAccessible"`
}

// SetWidgetToolMeta merges widget metadata into a Tool's _meta field.
// Initializes the Meta map if nil. Empty strings are not written.
func SetWidgetToolMeta(tool *Tool, meta WidgetToolMeta) {
	if tool.Meta == nil {
		tool.Meta = make(map[string]interface{})
	}
	if meta.OutputTemplate != "" {
		tool.Meta[MetaOutputTemplate] = meta.OutputTemplate
	}
	if meta.Invoking != "" {
		tool.Meta[MetaInvoking] = meta.Invoking
	}
	if meta.Invoked != "" {
		tool.Meta[MetaInvoked] = meta.Invoked
	}
	tool.Meta[MetaWidgetAccessible] = meta.WidgetAccessible
}

// GetWidgetToolMeta extracts widget metadata from a Tool's _meta field.
// Returns nil if the tool declares no output template.
func GetWidgetToolMeta(tool Tool) *WidgetToolMeta {
	if tool.Meta == nil {
		return nil
	}
	if _, ok := tool.Meta[MetaOutputTemplate]; !ok {
		return nil
	}

	// Round-trip through JSON so values decoded from the wire
	// (interface{} maps) and values set in-process read the same way.
	data, err := json.Marshal(tool.Meta)
	if err != nil {
		return nil
	}
	var meta WidgetToolMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil
	}
	return &meta
}
