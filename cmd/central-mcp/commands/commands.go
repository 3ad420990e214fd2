package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tphakala/go-central"
	"github.com/tphakala/go-central/internal/tools"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Central API as MCP tools on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, logger, err := a.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return tools.New(client, "central-mcp", a.info.Version, logger.Named("mcp")).ServeStdio()
		},
	}
}

func newWhoAmICommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity and API hosts behind the credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			id, err := client.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), id, func(t *tablewriter.Table) {
				t.Header("Field", "Value")
				_ = t.Append("ID", id.ID)
				_ = t.Append("Type", string(id.IDType))
				_ = t.Append("API Host", orDash(id.APIURL))
				_ = t.Append("Global Host", id.GlobalURL)
			})
		},
	}
}

type pageFlags struct {
	page     int
	pageSize int
	pageKey  string
}

func (p *pageFlags) register(cmd *cobra.Command, keyed bool) {
	if keyed {
		cmd.Flags().StringVar(&p.pageKey, "page-key", "", "nextKey from the previous page")
	} else {
		cmd.Flags().IntVar(&p.page, "page", 1, "page number")
	}
	cmd.Flags().IntVar(&p.pageSize, "page-size", 50, "results per page")
}

func (p *pageFlags) options() central.PageOptions {
	return central.PageOptions{Page: p.page, PageSize: p.pageSize, FromKey: p.pageKey}
}

func newTenantsCommand(a *app) *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:   "tenants",
		Short: "List tenants (partner and organization credentials)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			page, err := client.Tenants.List(cmd.Context(), pf.options())
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), page, func(t *tablewriter.Table) {
				t.Header("ID", "Name", "Region", "API Host", "Status")
				for _, tn := range page.Items {
					_ = t.Append(tn.ID, tn.Name, orDash(tn.DataRegion), orDash(tn.APIHost), orDash(tn.Status))
				}
			})
		},
	}
	pf.register(cmd, false)
	return cmd
}

func newEndpointsCommand(a *app) *cobra.Command {
	var (
		pf     pageFlags
		health []string
		kind   []string
		search string
	)

	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List managed endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			page, err := client.Endpoints.List(cmd.Context(), &central.EndpointFilter{
				HealthStatus: health,
				Type:         kind,
				Search:       search,
			}, pf.options())
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), page, func(t *tablewriter.Table) {
				t.Header("ID", "Hostname", "Type", "Health", "OS", "Isolation", "Last Seen")
				for _, ep := range page.Items {
					_ = t.Append(ep.ID, ep.Hostname, ep.Type, orDash(ep.Health.Overall),
						orDash(ep.OS.Name), orDash(ep.Isolation.Status), formatTime(ep.LastSeenAt))
				}
			})
		},
	}
	pf.register(cmd, true)
	cmd.Flags().StringSliceVar(&health, "health", nil, "health status filter (good, suspicious, bad, unknown)")
	cmd.Flags().StringSliceVar(&kind, "type", nil, "endpoint type filter (computer, server, securityVm)")
	cmd.Flags().StringVar(&search, "search", "", "free-text search")
	return cmd
}

func newAlertsCommand(a *app) *cobra.Command {
	var (
		pf       pageFlags
		severity []string
		category []string
		since    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			filter := &central.AlertFilter{Category: category}
			for _, s := range severity {
				filter.Severity = append(filter.Severity, central.Severity(strings.ToLower(s)))
			}
			if since > 0 {
				filter.From = time.Now().Add(-since)
			}

			page, err := client.Alerts.List(cmd.Context(), filter, pf.options())
			if err != nil {
				return err
			}

			return a.render(cmd.OutOrStdout(), page, func(t *tablewriter.Table) {
				t.Header("ID", "Severity", "Category", "Raised", "Description")
				for _, al := range page.Items {
					_ = t.Append(al.ID, string(al.Severity), al.Category, formatTime(al.RaisedAt), al.Description)
				}
			})
		},
	}
	pf.register(cmd, true)
	cmd.Flags().StringSliceVar(&severity, "severity", nil, "severity filter (low, medium, high)")
	cmd.Flags().StringSliceVar(&category, "category", nil, "category filter")
	cmd.Flags().DurationVar(&since, "since", 0, "only alerts raised within this duration")
	return cmd
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "central-mcp %s (commit %s, built %s)\n", a.info.Version, a.info.Commit, a.info.Date)
			return err
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}
