package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"tadweer/internal/analytics"
	"tadweer/internal/config"
	"tadweer/internal/db"
	"tadweer/internal/deliveries"
	"tadweer/internal/domain"
	"tadweer/internal/events"
	"tadweer/internal/identity"
	"tadweer/internal/migrate"
	"tadweer/internal/orders"
	"tadweer/internal/rewards"
	"tadweer/internal/role"
	"tadweer/internal/routing"
	"tadweer/internal/server"
	"tadweer/internal/storage"
	"tadweer/internal/workflow"
)

var rootCmd = &cobra.Command{
	Use:   "tadweer",
	Short: "Tadweer CLI",
	Long: `Tadweer runs a used-cooking-oil collection marketplace from the terminal.
Core concepts:
- Workspace: your .tadweer directory with the database; orders, points and the
  session profile all persist there.
- Session: sign in, pick a role (customer or company), and the dashboards and
  route guard follow that role.
- Orders: collection orders flow pending -> scheduled -> completed (or
  cancelled). Companies place bulk purchase orders; customers request pickups
  of their containers.
- Points: completed collections earn points per liter; spend them on rewards.
- Deliveries: scheduling assigns a driver and an ETA, then the tracker reports
  progress.
- Event log: diary of changes, view with 'tadweer log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	_ = godotenv.Load(filepath.Join(viper.GetString("workspace"), ".env"))
	viper.SetEnvPrefix("TADWEER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "log internal activity")
	rootCmd.PersistentFlags().String("actor-id", "", "actor recorded on audit events (defaults to the signed-in user)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(roleCmd())
	rootCmd.AddCommand(orderCmd())
	rootCmd.AddCommand(collectCmd())
	rootCmd.AddCommand(deliveryCmd())
	rootCmd.AddCommand(analyticsCmd())
	rootCmd.AddCommand(rewardsCmd())
	rootCmd.AddCommand(leaderboardCmd())
	rootCmd.AddCommand(containersCmd())
	rootCmd.AddCommand(routeCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

// app bundles everything a command needs against one open workspace.
type app struct {
	Cfg      *config.Config
	Store    *orders.Store
	Ledger   *rewards.Ledger
	Tracker  *deliveries.Tracker
	Events   events.Writer
	Profile  identity.KVProfile
	Resolver *role.Resolver
	Picker   workflow.LocationPicker
	Log      *zap.Logger
}

func withApp(ctx context.Context, fn func(context.Context, *app) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	log := zap.NewNop()
	if viper.GetBool("verbose") {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	kv := storage.SQLite{DB: conn}
	ev := events.Writer{DB: conn}
	store := orders.New(ctx, kv, ev, log)
	ledger := rewards.New(ctx, kv, ev, cfg.RewardCatalog(), cfg.Points.PerLiter, log)
	detach := ledger.Attach(store)
	defer detach()
	profile := identity.KVProfile{KV: kv}
	actor := viper.GetString("actor-id")
	if actor == "" {
		if u, err := profile.CurrentUser(ctx); err == nil && u.IsSignedIn {
			actor = u.ID
		}
	}
	if actor != "" {
		store.ActorID = actor
		ledger.ActorID = actor
	}
	a := &app{
		Cfg:      cfg,
		Store:    store,
		Ledger:   ledger,
		Tracker:  deliveries.New(store, cfg.DriverPool()),
		Events:   ev,
		Profile:  profile,
		Resolver: role.NewResolver(profile, log),
		Picker:   workflow.DefaultPicker(),
		Log:      log,
	}
	a.Resolver.Refresh(ctx)
	return fn(ctx, a)
}

func sessionCmd() *cobra.Command {
	s := &cobra.Command{Use: "session", Short: "Manage the local session"}
	s.AddCommand(sessionSignInCmd())
	s.AddCommand(sessionSignOutCmd())
	s.AddCommand(sessionShowCmd())
	return s
}

func sessionSignInCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "sign-in",
		Short: "Sign in to this workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.Profile.SignIn(ctx, id, name); err != nil {
					return err
				}
				return printJSONOrTable(a.Resolver.Refresh(ctx))
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func sessionSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign-out",
		Short: "Erase the session profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if err := a.Profile.SignOut(ctx); err != nil {
					return err
				}
				return printJSONOrTable(a.Resolver.Refresh(ctx))
			})
		},
	}
}

func sessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return printJSONOrTable(a.Resolver.State())
			})
		},
	}
}

func roleCmd() *cobra.Command {
	r := &cobra.Command{Use: "role", Short: "Show or choose the session role"}
	r.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return printJSONOrTable(map[string]string{"role": a.Resolver.Role()})
			})
		},
	})
	r.AddCommand(&cobra.Command{
		Use:   "set <customer|company>",
		Short: "Choose the session role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if !a.Resolver.UpdateRole(ctx, args[0]) {
					return fmt.Errorf("could not set role %q (signed in? known role?)", args[0])
				}
				if err := a.Events.Append(ctx, "role.updated", "user", "", a.Store.ActorID, events.EventPayload{"role": args[0]}); err != nil {
					a.Log.Warn("append event failed", zap.Error(err))
				}
				return printJSONOrTable(a.Resolver.Refresh(ctx))
			})
		},
	})
	return r
}

func resolveLocation(ctx context.Context, picker workflow.LocationPicker, query, address string, lat, lng float64) (*domain.Location, error) {
	if address != "" {
		return &domain.Location{Lat: lat, Lng: lng, Address: address}, nil
	}
	if query == "" {
		return nil, nil
	}
	loc, ok := picker.PickLocation(ctx, query)
	if !ok {
		return nil, fmt.Errorf("no location matches %q", query)
	}
	return &loc, nil
}

func fieldErrorsError(errs workflow.FieldErrors) error {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}

func orderCmd() *cobra.Command {
	o := &cobra.Command{
		Use:   "order",
		Short: "Manage collection orders",
		Long:  "Orders are the canonical list, newest first. Creating one walks the same volume -> date -> location steps the dashboard form uses.",
	}
	o.AddCommand(orderCreateCmd())
	o.AddCommand(orderListCmd())
	o.AddCommand(orderShowCmd())
	o.AddCommand(orderUpdateCmd())
	o.AddCommand(orderStatusCmd())
	o.AddCommand(orderScheduleCmd())
	o.AddCommand(orderDeleteCmd())
	o.AddCommand(orderClearCmd())
	return o
}

func orderCreateCmd() *cobra.Command {
	var volume, date, locQuery, address string
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Place a purchase order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				loc, err := resolveLocation(ctx, a.Picker, locQuery, address, lat, lng)
				if err != nil {
					return err
				}
				form := workflow.NewOrderForm(a.Cfg.Orders.Volumes, nil)
				form.Volume = volume
				form.CollectionDate = date
				form.SetLocation(loc)
				for !form.FinalStep() {
					if errs := form.Next(); errs != nil {
						return fieldErrorsError(errs)
					}
				}
				order, errs, err := form.Submit(ctx, a.Store)
				if errs != nil {
					return fieldErrorsError(errs)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(order)
			})
		},
	}
	cmd.Flags().StringVar(&volume, "volume", "", "order volume, e.g. 1000L")
	cmd.Flags().StringVar(&date, "date", "", "collection date YYYY-MM-DD")
	cmd.Flags().StringVar(&locQuery, "location", "", "location query, e.g. muscat")
	cmd.Flags().StringVar(&address, "address", "", "explicit address (overrides --location)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude for --address")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude for --address")
	_ = cmd.MarkFlagRequired("volume")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func orderListCmd() *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				list := analytics.Filter(a.Store.List(), status, search)
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Volume", "Date", "Status", "Location", "Driver"})
				for _, o := range list {
					tw.AppendRow(table.Row{shortID(o.ID), o.Volume, o.CollectionDate, o.Status, o.Location.Address, o.AssignedDriver})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter (pending, scheduled, completed, cancelled)")
	cmd.Flags().StringVar(&search, "search", "", "match order id or address")
	return cmd
}

func orderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				o, ok := a.Store.GetByID(args[0])
				if !ok {
					return fmt.Errorf("order %s not found", args[0])
				}
				return printJSONOrTable(o)
			})
		},
	}
}

func orderUpdateCmd() *cobra.Command {
	var volume, date, notes, customerNotes, eta, driver string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update order fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				patch := orders.OrderPatch{}
				if cmd.Flags().Changed("volume") {
					patch.Volume = &volume
				}
				if cmd.Flags().Changed("date") {
					patch.CollectionDate = &date
				}
				if cmd.Flags().Changed("notes") {
					patch.Notes = &notes
				}
				if cmd.Flags().Changed("customer-notes") {
					patch.CustomerNotes = &customerNotes
				}
				if cmd.Flags().Changed("eta") {
					patch.EstimatedTime = &eta
				}
				if cmd.Flags().Changed("driver") {
					patch.AssignedDriver = &driver
				}
				if a.Store.Update(ctx, args[0], patch) == orders.NotFound {
					return fmt.Errorf("order %s not found", args[0])
				}
				o, _ := a.Store.GetByID(args[0])
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&volume, "volume", "", "order volume")
	cmd.Flags().StringVar(&date, "date", "", "collection date")
	cmd.Flags().StringVar(&notes, "notes", "", "replace internal notes")
	cmd.Flags().StringVar(&customerNotes, "customer-notes", "", "replace customer notes")
	cmd.Flags().StringVar(&eta, "eta", "", "estimated pickup time (RFC3339)")
	cmd.Flags().StringVar(&driver, "driver", "", "assigned driver")
	return cmd
}

func orderStatusCmd() *cobra.Command {
	var status, note string
	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Set order status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !domain.ValidStatus(status) {
				return fmt.Errorf("unknown status %q (want one of %v)", status, domain.OrderStatuses)
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if a.Store.UpdateStatus(ctx, args[0], status, note) == orders.NotFound {
					return fmt.Errorf("order %s not found", args[0])
				}
				o, _ := a.Store.GetByID(args[0])
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&note, "note", "", "note to append")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func orderScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id>",
		Short: "Assign a driver and schedule the pickup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				o, err := a.Tracker.Schedule(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
}

func orderDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				if a.Store.Delete(ctx, args[0]) == orders.NotFound {
					return fmt.Errorf("order %s not found", args[0])
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func orderClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.Store.Clear(ctx)
			})
		},
	}
}

func collectCmd() *cobra.Command {
	var size, quantity, phone, date, slot, locQuery, address, notes string
	var lat, lng float64
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Request a pickup of filled containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				loc, err := resolveLocation(ctx, a.Picker, locQuery, address, lat, lng)
				if err != nil {
					return err
				}
				form := workflow.NewCollectionRequest(a.Cfg.Collection.ContainerSizes, a.Cfg.Collection.TimeSlots, nil)
				form.ContainerSize = size
				form.Quantity = quantity
				form.Phone = phone
				form.Date = date
				form.TimeSlot = slot
				form.Notes = notes
				form.SetLocation(loc)
				if errs := form.Next(); errs != nil {
					return fieldErrorsError(errs)
				}
				order, errs, err := form.Submit(ctx, a.Store)
				if errs != nil {
					return fieldErrorsError(errs)
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(order)
			})
		},
	}
	cmd.Flags().StringVar(&size, "size", "", "container size, e.g. 10L")
	cmd.Flags().StringVar(&quantity, "quantity", "", "number of containers")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone number")
	cmd.Flags().StringVar(&date, "date", "", "pickup date YYYY-MM-DD")
	cmd.Flags().StringVar(&slot, "slot", "", "preferred time slot")
	cmd.Flags().StringVar(&locQuery, "location", "", "location query")
	cmd.Flags().StringVar(&address, "address", "", "explicit address")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude for --address")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude for --address")
	cmd.Flags().StringVar(&notes, "notes", "", "extra instructions")
	_ = cmd.MarkFlagRequired("size")
	_ = cmd.MarkFlagRequired("quantity")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func deliveryCmd() *cobra.Command {
	d := &cobra.Command{Use: "delivery", Short: "Track scheduled pickups"}
	d.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active and completed deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				list := a.Tracker.List()
				if viper.GetBool("json") {
					return printJSON(list)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Order", "Status", "Progress", "Driver", "ETA"})
				for _, dl := range list {
					tw.AppendRow(table.Row{shortID(dl.OrderID), dl.Status, fmt.Sprintf("%d%%", dl.Progress), dl.Driver.Name, dl.EstimatedArrival})
				}
				tw.Render()
				return nil
			})
		},
	})
	d.AddCommand(&cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one delivery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				dl, ok := a.Tracker.Get(args[0])
				if !ok {
					return fmt.Errorf("no delivery for order %s", args[0])
				}
				return printJSONOrTable(dl)
			})
		},
	})
	return d
}

func analyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Order totals, efficiency and monthly volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				list := a.Store.List()
				summary := analytics.Summarize(list)
				monthly := analytics.MonthlyVolume(list)
				if viper.GetBool("json") {
					return printJSON(map[string]any{"summary": summary, "monthly": monthly})
				}
				fmt.Printf("Orders: %d  Liters: %d  Efficiency: %.0f%%\n", summary.TotalOrders, summary.TotalLiters, summary.EfficiencyPct)
				for status, n := range summary.ByStatus {
					fmt.Printf("  %s: %d\n", status, n)
				}
				if len(monthly) > 0 {
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Month", "Orders", "Liters"})
					for _, b := range monthly {
						tw.AppendRow(table.Row{b.Month, b.Orders, b.Liters})
					}
					tw.Render()
				}
				return nil
			})
		},
	}
	return cmd
}

func rewardsCmd() *cobra.Command {
	r := &cobra.Command{Use: "rewards", Short: "Points balance and reward catalog"}
	r.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List catalog rewards",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				catalog := a.Ledger.Catalog()
				if viper.GetBool("json") {
					return printJSON(catalog)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Reward", "Points"})
				for _, rw := range catalog {
					tw.AppendRow(table.Row{rw.ID, rw.Title, rw.PointsCost})
				}
				tw.Render()
				fmt.Println("Balance:", a.Ledger.Balance())
				return nil
			})
		},
	})
	r.AddCommand(&cobra.Command{
		Use:   "points",
		Short: "Show the points ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return printJSONOrTable(map[string]any{
					"balance": a.Ledger.Balance(),
					"entries": a.Ledger.Entries(),
				})
			})
		},
	})
	r.AddCommand(&cobra.Command{
		Use:   "redeem <reward-id>",
		Short: "Redeem a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				reward, err := a.Ledger.Redeem(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(map[string]any{"reward": reward, "balance": a.Ledger.Balance()})
			})
		},
	})
	return r
}

func leaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Community recycling leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				you := "You"
				if u, err := a.Profile.CurrentUser(ctx); err == nil && u.Name != "" {
					you = u.Name
				}
				board := a.Ledger.Leaderboard(a.Cfg.LeaderboardSeeds(), you)
				if viper.GetBool("json") {
					return printJSON(board)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Rank", "Name", "Points", "Liters"})
				for _, e := range board {
					tw.AppendRow(table.Row{e.Rank, e.Name, e.Points, e.LitersRecycled})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func containersCmd() *cobra.Command {
	c := &cobra.Command{Use: "containers", Short: "Container catalog and purchase quotes"}
	c.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Container catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				catalog := a.Cfg.ContainerCatalog()
				if viper.GetBool("json") {
					return printJSON(catalog)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Size", "Price (OMR)"})
				for _, c := range catalog {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Size, c.Price.StringFixed(2)})
				}
				tw.Render()
				return nil
			})
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "quote <id>=<qty> ...",
		Short: "Price a container purchase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				items := make([]rewards.QuoteItem, 0, len(args))
				for _, arg := range args {
					id, qtyStr, found := strings.Cut(arg, "=")
					if !found {
						return fmt.Errorf("expected <id>=<qty>, got %q", arg)
					}
					qty, err := cast.ToIntE(qtyStr)
					if err != nil {
						return fmt.Errorf("quantity %q for %s is not a number", qtyStr, id)
					}
					items = append(items, rewards.QuoteItem{ContainerID: id, Quantity: qty})
				}
				quote, err := rewards.QuoteContainers(a.Cfg.ContainerCatalog(), items)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(quote)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Container", "Size", "Qty", "Subtotal (OMR)"})
				for _, line := range quote.Lines {
					tw.AppendRow(table.Row{line.Container.Name, line.Container.Size, line.Quantity, line.Subtotal.StringFixed(2)})
				}
				tw.AppendFooter(table.Row{"", "", "Total", quote.Total.StringFixed(2)})
				tw.Render()
				return nil
			})
		},
	})
	return c
}

func routeCmd() *cobra.Command {
	r := &cobra.Command{Use: "route", Short: "Inspect route-guard decisions"}
	r.AddCommand(&cobra.Command{
		Use:   "decide <path>",
		Short: "Where would the guard send the current session?",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				st := a.Resolver.State()
				d := a.Cfg.Sections().Decide(routing.State{
					Loaded:   st.Loaded,
					SignedIn: st.SignedIn,
					Role:     st.Role,
					Path:     args[0],
				})
				return printJSONOrTable(map[string]string{
					"action": d.Action.String(),
					"target": d.Target,
				})
			})
		},
	})
	return r
}

func logCmd() *cobra.Command {
	log := &cobra.Command{Use: "log", Short: "Event log"}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				list, err := a.Events.Latest(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(list)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config is the rulebook (tadweer.yml): allowed volumes and container sizes, time slots, route paths, reward and container catalogs, and the driver pool.",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return printJSONOrTable(a.Cfg)
			})
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default tadweer.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	return cfg
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and dashboard pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("TADWEER_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("TADWEER_JWT_SECRET is required for session tokens")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				log := zap.NewNop()
				if l, err := zap.NewProduction(); err == nil {
					log = l
				}
				handler, err := server.New(server.Config{
					Store:    a.Store,
					Ledger:   a.Ledger,
					Tracker:  a.Tracker,
					Events:   a.Events,
					App:      a.Cfg,
					Picker:   a.Picker,
					Auth:     server.AuthConfig{Tokens: identity.TokenProvider{Secret: secret}},
					BasePath: basePath,
					Log:      log,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Shutdown(shutdownCtx); err != nil {
						log.Warn("server shutdown", zap.Error(err))
					}
				}()
				fmt.Printf("Serving Tadweer on http://%s (API under %s, pages at the configured routes)\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

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

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
