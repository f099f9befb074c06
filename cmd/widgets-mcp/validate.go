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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/damixnr/openai-apps-sdk/pkg/config"
	"github.com/damixnr/openai-apps-sdk/pkg/mcp/protocol"
	"github.com/damixnr/openai-apps-sdk/pkg/widgets"
)

// fetchConcurrency bounds parallel asset fetches during validate --fetch.
const fetchConcurrency = 4

func newValidateCmd(a *app) *cobra.Command {
	var fetch bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest, widget metadata and tool templates",
		Long: `validate loads the configuration and manifest, builds widget metadata and
registers every resource and tool, then prints what would be served along
with every duplicate resource URI and dangling output template. It exits
non-zero when anything would be degraded at runtime.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd.Context(), a.cfg, cmd.OutOrStdout(), fetch)
		},
	}
	cmd.Flags().BoolVar(&fetch, "fetch", false, "also fetch every widget from asset storage")

	return cmd
}

func runValidate(ctx context.Context, cfg *config.Config, out io.Writer, fetch bool) error {
	var problems []string

	meta, err := widgets.BuildResourceMetadata(cfg.Widgets.WidgetConfig, zap.NewNop())
	if err != nil {
		problems = append(problems, err.Error())
	}

	m, err := loadManifest(cfg.Manifest)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	for _, uri := range m.DuplicateResourceURIs() {
		problems = append(problems, fmt.Sprintf("resource URI %q is used by more than one route", uri))
	}

	f, err := buildFetcher(cfg.Assets)
	if err != nil {
		return err
	}

	// Register permissively so one run reports duplicates and dangling
	// templates together; duplicates were collected from the manifest above.
	reg := widgets.NewRegistry()
	if err := widgets.Initialize(reg, m, meta, f, widgets.DefaultTools(m)); err != nil {
		return fmt.Errorf("register widgets: %w", err)
	}
	if err := reg.Validate(); err != nil {
		for _, e := range splitJoined(err) {
			problems = append(problems, e.Error())
		}
	}

	tools, err := reg.ListTools(ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		if wm := protocol.GetWidgetToolMeta(t); wm != nil && !protocol.IsWidgetURI(wm.OutputTemplate) {
			problems = append(problems, fmt.Sprintf("tool %q: output template %q is not a %s URI", t.Name, wm.OutputTemplate, protocol.WidgetScheme))
		}
	}

	if fetch {
		problems = append(problems, fetchAll(ctx, reg)...)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOURCE\tNAME\tMIME TYPE")
	for _, r := range reg.Resources() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.URI, r.Name, r.MimeType)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "TOOL\tTITLE\tOUTPUT TEMPLATE")
	for _, t := range tools {
		template := "-"
		if wm := protocol.GetWidgetToolMeta(t); wm != nil {
			template = wm.OutputTemplate
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Title, template)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(problems) > 0 {
		fmt.Fprintln(out)
		for _, p := range problems {
			fmt.Fprintf(out, "problem: %s\n", p)
		}
		return fmt.Errorf("validation found %d problem(s)", len(problems))
	}

	fmt.Fprintln(out, "\nOK")
	return nil
}

// fetchAll reads every registered resource and returns one problem per
// failed read, in resource order.
func fetchAll(ctx context.Context, reg *widgets.Registry) []string {
	resources := reg.Resources()
	failures := make([]string, len(resources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, r := range resources {
		g.Go(func() error {
			if _, err := reg.ReadResource(gctx, r.URI); err != nil {
				failures[i] = fmt.Sprintf("read %s: %v", r.URI, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var problems []string
	for _, f := range failures {
		if f != "" {
			problems = append(problems, f)
		}
	}
	return problems
}

func splitJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
