package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hims/admin/internal/config"
	"github.com/hims/admin/internal/notify"
	"github.com/hims/admin/internal/resources"
	"github.com/hims/admin/internal/sandbox"
	"github.com/hims/admin/internal/session"
	"github.com/hims/admin/internal/transport"
	"github.com/hims/admin/pkg/liststate"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hims-admin",
		Short: "Hospital admin panel CLI",
	}

	rootCmd.AddCommand(sandboxCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(filesCmd("lab-reports"))
	rootCmd.AddCommand(filesCmd("prescriptions"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *session.FileStore
	client *resources.Client
	sink   notify.Sink
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(lvl)
	}

	store := session.NewFileStore(cfg.SessionFile)
	exec := transport.NewExecutor(&http.Client{Timeout: cfg.HTTPTimeout}, store, logger)
	client := resources.NewClient(exec, cfg.APIBaseURL, logger)

	return &app{
		cfg:    cfg,
		log:    logger,
		store:  store,
		client: client,
		sink:   notify.LogSink{Log: logger},
	}, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ---------------------------------------------------------------------------
// sandbox
// ---------------------------------------------------------------------------

func sandboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sandbox",
		Short: "Run the local in-memory backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			seedCfg := sandbox.DefaultSeedConfig()
			seedCfg.Seed = a.cfg.SandboxSeed
			srv := sandbox.NewServer(seedCfg, a.log)
			return srv.Start(":" + a.cfg.SandboxPort)
		},
	}
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			cred, res := a.client.Auth.Login(ctx, email, password, a.cfg.DeviceName)
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("login failed: %s", res.Err().Message)
			}
			if err := a.store.Save(cred); err != nil {
				return err
			}
			a.log.Info().Str("email", email).Msg("logged in")
			return nil
		},
	}
	cmd.Flags().String("email", "", "Admin account email")
	cmd.Flags().String("password", "", "Admin account password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			if err := a.store.Clear(); err != nil {
				return err
			}
			a.log.Info().Msg("logged out")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// resource commands
// ---------------------------------------------------------------------------

// resourceModule is the contract every typed service satisfies through
// its embedded generic module: single-record operations plus a fetch
// function the list controller consumes.
type resourceModule[T any] interface {
	Fetcher() liststate.FetchFunc[T]
	Get(context.Context, string) (*T, transport.Result)
	Create(context.Context, any) transport.Result
	Update(context.Context, string, any) transport.Result
	Delete(context.Context, string) transport.Result
}

// ops erases the element type so commands can dispatch on a resource name.
type ops struct {
	// list runs the list-state machine: page 1 under the given filters,
	// then load-more up to the requested page count.
	list   func(ctx context.Context, pageSize, pages int, f liststate.Filters) (any, liststate.Pagination, bool, error)
	get    func(context.Context, string) (any, transport.Result)
	create func(context.Context, any) transport.Result
	update func(context.Context, string, any) transport.Result
	del    func(context.Context, string) transport.Result
}

func bind[T any](m resourceModule[T], keyOf func(T) string) ops {
	return ops{
		list: func(ctx context.Context, pageSize, pages int, f liststate.Filters) (any, liststate.Pagination, bool, error) {
			ctrl := liststate.NewController(liststate.Config[T]{
				PageSize: pageSize,
				Fetch:    m.Fetcher(),
				KeyOf:    keyOf,
			})
			if err := ctrl.SetFilters(ctx, f); err != nil {
				return nil, liststate.Pagination{}, false, err
			}
			for page := 1; page < pages && ctrl.HasMore(); page++ {
				if err := ctrl.LoadMore(ctx); err != nil {
					return nil, liststate.Pagination{}, false, err
				}
			}
			return ctrl.Items(), ctrl.Pagination(), ctrl.HasMore(), nil
		},
		get: func(ctx context.Context, id string) (any, transport.Result) {
			item, res := m.Get(ctx, id)
			return item, res
		},
		create: m.Create,
		update: m.Update,
		del:    m.Delete,
	}
}

func opsFor(c *resources.Client, name string) (ops, error) {
	switch name {
	case "appointments":
		return bind[resources.Appointment](c.Appointments, func(a resources.Appointment) string { return a.ID }), nil
	case "patients":
		return bind[resources.Patient](c.Patients, func(p resources.Patient) string { return p.ID }), nil
	case "international-patients":
		return bind[resources.InternationalPatient](c.InternationalPatients, func(p resources.InternationalPatient) string { return p.ID }), nil
	case "doctors":
		return bind[resources.Doctor](c.Doctors, func(d resources.Doctor) string { return d.ID }), nil
	case "departments":
		return bind[resources.Department](c.Departments, func(d resources.Department) string { return d.ID }), nil
	case "health-checkups":
		return bind[resources.HealthCheckup](c.HealthCheckups, func(h resources.HealthCheckup) string { return h.ID }), nil
	case "news":
		return bind[resources.NewsItem](c.News, func(n resources.NewsItem) string { return n.ID }), nil
	case "blogs":
		return bind[resources.BlogPost](c.Blogs, func(b resources.BlogPost) string { return b.ID }), nil
	default:
		return ops{}, fmt.Errorf("unknown resource %q", name)
	}
}

const resourceArgHelp = "appointments|patients|international-patients|doctors|departments|health-checkups|news|blogs"

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records of a resource",
		Long:  "List records of a resource. Resources: " + resourceArgHelp,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			o, err := opsFor(a.client, args[0])
			if err != nil {
				return err
			}

			pages, _ := cmd.Flags().GetInt("pages")
			var f liststate.Filters
			f.Search, _ = cmd.Flags().GetString("search")
			f.Status, _ = cmd.Flags().GetString("status")
			f.Speciality, _ = cmd.Flags().GetString("speciality")
			f.Country, _ = cmd.Flags().GetString("country")
			f.Category, _ = cmd.Flags().GetString("category")

			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			items, pg, hasMore, err := o.list(ctx, a.cfg.PageSize, pages, f)
			if err != nil {
				var apiErr *transport.APIError
				if errors.As(err, &apiErr) {
					notify.Error(a.sink, apiErr)
				}
				return fmt.Errorf("list failed: %w", err)
			}
			a.log.Info().
				Int("page", pg.CurrentPage).
				Int("total_pages", pg.TotalPages).
				Int("total_records", pg.TotalRecords).
				Bool("has_more", hasMore).
				Msg("list loaded")
			return printJSON(items)
		},
	}
	cmd.Flags().Int("pages", 1, "Number of pages to accumulate, load-more style")
	cmd.Flags().String("search", "", "Free-text search")
	cmd.Flags().String("status", "", "Status facet")
	cmd.Flags().String("speciality", "", "Speciality facet")
	cmd.Flags().String("country", "", "Country facet")
	cmd.Flags().String("category", "", "Category facet")
	return cmd
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Fetch one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			o, err := opsFor(a.client, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			item, res := o.get(ctx, args[1])
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("get failed: %s", res.Err().Message)
			}
			return printJSON(item)
		},
	}
}

// readPayload parses the record body either from --data or from a JSON file
// given with --file.
func readPayload(cmd *cobra.Command) (map[string]any, error) {
	data, _ := cmd.Flags().GetString("data")
	file, _ := cmd.Flags().GetString("file")
	var raw []byte
	switch {
	case data != "":
		raw = []byte(data)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		raw = b
	default:
		return nil, fmt.Errorf("either --data or --file is required")
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return payload, nil
}

func createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <resource>",
		Short: "Create a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			o, err := opsFor(a.client, args[0])
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			res := o.create(ctx, payload)
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("create failed: %s", res.Err().Message)
			}
			a.log.Info().Str("resource", args[0]).Msg("created")
			return printJSON(json.RawMessage(res.Payload()))
		},
	}
	cmd.Flags().String("data", "", "Record body as inline JSON")
	cmd.Flags().String("file", "", "Path to a JSON file with the record body")
	return cmd
}

func updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <resource> <id>",
		Short: "Update a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			o, err := opsFor(a.client, args[0])
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			res := o.update(ctx, args[1], payload)
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("update failed: %s", res.Err().Message)
			}
			a.log.Info().Str("resource", args[0]).Str("id", args[1]).Msg("updated")
			return printJSON(json.RawMessage(res.Payload()))
		},
	}
	cmd.Flags().String("data", "", "Record body as inline JSON")
	cmd.Flags().String("file", "", "Path to a JSON file with the record body")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			o, err := opsFor(a.client, args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			res := o.del(ctx, args[1])
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("delete failed: %s", res.Err().Message)
			}
			a.log.Info().Str("resource", args[0]).Str("id", args[1]).Msg("deleted")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// patient file commands
// ---------------------------------------------------------------------------

// filesCmd builds the lab-reports or prescriptions command group. The two
// sub-resources share the upload/list/delete shape and differ only in
// endpoint and name field.
func filesCmd(kind string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: "Manage patient " + kind,
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <patient-id> <path>",
		Short: "Upload a file for a patient",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			a, err := bootstrap()
			if err != nil {
				return err
			}
			// Uploads get a longer window than regular calls.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			fileName := filepath.Base(args[1])
			var res transport.Result
			if kind == "lab-reports" {
				res = a.client.Patients.UploadLabReport(ctx, args[0], name, fileName, content)
			} else {
				res = a.client.Patients.UploadPrescription(ctx, args[0], name, fileName, content)
			}
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("upload failed: %s", res.Err().Message)
			}
			a.log.Info().Str("patient_id", args[0]).Str("file", fileName).Msg("uploaded")
			return nil
		},
	}
	uploadCmd.Flags().String("name", "", "Display name for the uploaded file")
	cmd.AddCommand(uploadCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list <patient-id>",
		Short: "List a patient's files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			var items any
			var res transport.Result
			if kind == "lab-reports" {
				items, res = a.client.Patients.ListLabReports(ctx, args[0])
			} else {
				items, res = a.client.Patients.ListPrescriptions(ctx, args[0])
			}
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("list failed: %s", res.Err().Message)
			}
			return printJSON(items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <patient-id> <file-id>",
		Short: "Delete a patient's file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
			defer cancel()

			var res transport.Result
			if kind == "lab-reports" {
				res = a.client.Patients.DeleteLabReport(ctx, args[0], args[1])
			} else {
				res = a.client.Patients.DeletePrescription(ctx, args[0], args[1])
			}
			if !notify.Report(a.sink, res) {
				return fmt.Errorf("delete failed: %s", res.Err().Message)
			}
			a.log.Info().Str("patient_id", args[0]).Str("file_id", args[1]).Msg("deleted")
			return nil
		},
	})

	return cmd
}
