package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"auditline/internal/app"
	"auditline/internal/calendar"
	"auditline/internal/config"
	"auditline/internal/db"
	"auditline/internal/deadline"
	"auditline/internal/domain"
	"auditline/internal/engine"
	"auditline/internal/engine/auth"
	"auditline/internal/logging"
	"auditline/internal/migrate"
	"auditline/internal/repo"
	"auditline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "auditline",
	Short: "Auditline monitoring service",
	Long: `Auditline runs regulatory monitorings of public procurement tenders.
- Monitoring: an audit of one tender by the state audit service (sas), moving
  draft -> active -> addressed/declined -> completed/closed, or stopped/cancelled.
- Decision: the order that starts a monitoring and opens the monitoring period.
- Conclusion: the finding; violations open an elimination period for the tender owner.
- Elimination report: the tender owner's answer, submitted with the token from
  'PATCH /monitorings/{id}/credentials'.
- Elimination resolution: the auditor's verdict on the report.
- Deadlines are counted in working days from the calendar table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(viper.GetString("log-level"))
		_, err := db.EnsureWorkspace(viper.GetString("workspace"))
		return err
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	// A missing .env is fine.
	_ = godotenv.Load()
	viper.SetEnvPrefix("AUDITLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(monitoringCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(authCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if basePath == "" {
					basePath = a.Config.Service.BasePath
				}
				authCfg := server.AuthConfig{JWTSecret: jwtSecret(a.Config), Logger: slog.Default()}
				if authCfg.JWTSecret == "" {
					slog.Warn("no JWT secret configured; bearer tokens are rejected")
				}
				handler, err := server.New(server.Config{
					Engine:   a.Engine,
					BasePath: basePath,
					Auth:     authCfg,
					Logger:   slog.Default(),
					Gatherer: a.Registry,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				slog.Info("serving auditline API", "addr", addr, "base_path", basePath, "docs", "/docs", "metrics", "/metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to service.base_path)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
			if err != nil {
				return err
			}
			defer conn.Close()
			n, err := migrate.MigrateContext(cmd.Context(), conn)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"applied": n})
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage auditline.yml",
		Long:  "Config holds the service timezone, period lengths in working days, the holiday calendar and the document service and tenders API endpoints.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default auditline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate auditline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err == nil {
				_, err = app.LoadCalendar(workspace, cfg)
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func calendarCmd() *cobra.Command {
	cal := &cobra.Command{Use: "calendar", Short: "Inspect the working-day calendar"}
	cal.AddCommand(calendarCheckCmd())
	cal.AddCommand(calendarListCmd())
	cal.AddCommand(calendarDeadlinesCmd())
	return cal
}

func calendarCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check DATE",
		Short: "Report whether DATE (YYYY-MM-DD) is a working day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return err
			}
			return withCalendar(func(cfg *config.Config, cal *calendar.Calendar) error {
				res := map[string]any{
					"date":    args[0],
					"working": cal.IsWorkingDay(day),
					"full":    cal.IsFullWorkingDay(day),
					"version": cal.Version(),
				}
				return printJSONOrTable(res)
			})
		},
	}
}

func calendarListCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List holidays and transferred working days",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(from, to)
			if err != nil {
				return err
			}
			return withCalendar(func(cfg *config.Config, cal *calendar.Calendar) error {
				days := cal.Holidays(start, end)
				if viper.GetBool("json") {
					return printJSON(days)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Date", "Weekday", "Working", "Full"})
				for _, d := range days {
					t, _ := time.Parse("2006-01-02", d.Date)
					tw.AppendRow(table.Row{d.Date, t.Weekday(), d.Working, d.Full})
				}
				tw.Render()
				return nil
			})
		},
	}
	year := time.Now().Year()
	cmd.Flags().StringVar(&from, "from", fmt.Sprintf("%d-01-01", year), "first date")
	cmd.Flags().StringVar(&to, "to", fmt.Sprintf("%d-12-31", year), "last date")
	return cmd
}

// calendarDeadlinesCmd previews the period ends a transition at --at would get.
func calendarDeadlinesCmd() *cobra.Command {
	var at string
	var accelerator int
	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "Preview period end dates for a transition at a given time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCalendar(func(cfg *config.Config, cal *calendar.Calendar) error {
				loc, err := cfg.Location()
				if err != nil {
					return err
				}
				start := time.Now().In(loc)
				if at != "" {
					if start, err = time.ParseInLocation("2006-01-02T15:04", at, loc); err != nil {
						return err
					}
				}
				calc := deadline.Calculator{Calendar: cal}
				days := func(n int) time.Duration { return time.Duration(n) * deadline.Day }
				p := cfg.Periods
				rows := []struct {
					Period string    `json:"period"`
					Days   int       `json:"working_days"`
					End    time.Time `json:"end"`
				}{
					{"monitoringPeriod", p.MonitoringTime, calc.BusinessDate(start, days(p.MonitoringTime), accelerator, true)},
					{"endDate", p.MonitoringEndPeriod, calc.BusinessDate(start, days(p.MonitoringEndPeriod), accelerator, true)},
					{"eliminationPeriod (addressed)", p.EliminationPeriod, calc.NormalizedBusinessDate(start, days(p.EliminationPeriod), accelerator, true)},
					{"eliminationPeriod (declined)", p.EliminationPeriodNoViolations, calc.NormalizedBusinessDate(start, days(p.EliminationPeriodNoViolations), accelerator, true)},
				}
				if viper.GetBool("json") {
					return printJSON(rows)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle("Transition at " + start.Format(time.RFC3339))
				tw.AppendHeader(table.Row{"Period", "Working days", "Ends"})
				for _, r := range rows {
					tw.AppendRow(table.Row{r.Period, r.Days, r.End.Format(time.RFC3339)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "transition time, YYYY-MM-DDTHH:MM in the service timezone (default now)")
	cmd.Flags().IntVar(&accelerator, "accelerator", 0, "sandbox accelerator")
	return cmd
}

func monitoringCmd() *cobra.Command {
	m := &cobra.Command{Use: "monitoring", Short: "Inspect monitorings"}
	m.AddCommand(monitoringListCmd())
	m.AddCommand(monitoringShowCmd())
	m.AddCommand(monitoringDeadlinesCmd())
	return m
}

func monitoringListCmd() *cobra.Command {
	var f repo.MonitoringFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monitorings by modification time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Engine.ListMonitorings(ctx, f, auth.Anonymous)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Tender", "Status", "Next", "Modified"})
				for _, m := range items {
					tw.AppendRow(table.Row{m.ID, m.TenderID, m.Status, joinStatuses(engine.Targets(m.Status)), m.DateModified.Format(time.RFC3339)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.TenderID, "tender-id", "", "tender filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 100, "max items")
	return cmd
}

func monitoringShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				m, err := a.Engine.GetMonitoring(ctx, args[0], auth.Anonymous)
				if err != nil {
					return err
				}
				return printJSON(m)
			})
		},
	}
}

func monitoringDeadlinesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deadlines ID",
		Short: "Show the periods of a monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				m, err := a.Engine.GetMonitoring(ctx, args[0], auth.Anonymous)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"monitoringPeriod":  m.MonitoringPeriod,
						"endDate":           m.EndDate,
						"eliminationPeriod": m.EliminationPeriod,
					})
				}
				now := time.Now().In(a.Engine.Location)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.SetTitle(fmt.Sprintf("Monitoring %s (%s)", m.ID, m.Status))
				tw.AppendHeader(table.Row{"Period", "Start", "End", "Elapsed"})
				addPeriod := func(name string, p *domain.Period) {
					if p == nil {
						tw.AppendRow(table.Row{name, "-", "-", "-"})
						return
					}
					tw.AppendRow(table.Row{name, p.StartDate.Format(time.RFC3339), p.EndDate.Format(time.RFC3339), !now.Before(p.EndDate)})
				}
				addPeriod("monitoringPeriod", m.MonitoringPeriod)
				if m.EndDate != nil {
					tw.AppendRow(table.Row{"endDate", "-", m.EndDate.Format(time.RFC3339), !now.Before(*m.EndDate)})
				}
				addPeriod("eliminationPeriod", m.EliminationPeriod)
				tw.Render()
				return nil
			})
		},
	}
}

func apiKeyCmd() *cobra.Command {
	k := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
		Long:  "API keys bind a caller to a role (sas, broker, reviewer). Send the key as the Basic auth username or in X-Api-Key.",
	}
	k.AddCommand(apiKeyCreateCmd())
	k.AddCommand(apiKeyListCmd())
	k.AddCommand(apiKeyDeleteCmd())
	return k
}

func apiKeyCreateCmd() *cobra.Command {
	var actorID, role, name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key; the key is printed once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				buf := make([]byte, 24)
				if _, err := rand.Read(buf); err != nil {
					return err
				}
				secret := hex.EncodeToString(buf)
				key := domain.APIKey{
					ID:      strings.ReplaceAll(uuid.NewString(), "-", ""),
					ActorID: actorID,
					Role:    domain.Role(role),
					Name:    name,
					KeyHash: repo.HashAPIKey(secret),
				}
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"id": key.ID, "actor_id": key.ActorID, "role": key.Role, "key": secret})
			})
		},
	}
	cmd.Flags().StringVar(&actorID, "actor-id", "", "actor the key authenticates as")
	cmd.Flags().StringVar(&role, "role", "", "sas, broker or reviewer")
	cmd.Flags().StringVar(&name, "name", "", "label")
	_ = cmd.MarkFlagRequired("actor-id")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func apiKeyListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, role)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Role", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Role, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role filter")
	return cmd
}

func apiKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Event log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Entity", "Actor", "Payload"})
				for _, e := range events {
					tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.EntityKind + ":" + e.EntityID, e.ActorID, e.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func authCmd() *cobra.Command {
	a := &cobra.Command{Use: "auth", Short: "Roles and tokens"}
	a.AddCommand(authPolicyCmd())
	a.AddCommand(authTokenCmd())
	return a
}

func authPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy [ROLE]",
		Short: "Show the permissions of each role",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := auth.NewService()
			if err != nil {
				return err
			}
			roles := []domain.Role{domain.RoleSAS, domain.RoleBroker, domain.RoleReviewer, domain.RolePublic}
			if len(args) == 1 {
				roles = []domain.Role{domain.Role(args[0])}
			}
			out := map[domain.Role][]string{}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Role", "Resource", "Action"})
			for _, role := range roles {
				perms, err := svc.Permissions(role)
				if err != nil {
					return err
				}
				for _, p := range perms {
					out[role] = append(out[role], p[0]+":"+p[1])
					tw.AppendRow(table.Row{role, p[0], p[1]})
				}
			}
			if viper.GetBool("json") {
				return printJSON(out)
			}
			tw.Render()
			return nil
		},
	}
}

func authTokenCmd() *cobra.Command {
	var actorID, role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			token, err := server.IssueToken(jwtSecret(cfg), actorID, domain.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&actorID, "actor-id", "", "token subject")
	cmd.Flags().StringVar(&role, "role", "", "sas, broker or reviewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("actor-id")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

// --- helpers ---

func withCalendar(fn func(*config.Config, *calendar.Calendar) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	cal, err := app.LoadCalendar(workspace, cfg)
	if err != nil {
		return err
	}
	return fn(cfg, cal)
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(ctx, viper.GetString("workspace"), slog.Default())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func jwtSecret(cfg *config.Config) string {
	if s := viper.GetString("jwt-secret"); s != "" {
		return s
	}
	return cfg.Auth.JWTSecret
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("--to is before --from")
	}
	return start, end, nil
}

func joinStatuses(items []domain.Status) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
