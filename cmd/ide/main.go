package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"ide-go/internal/app"
	"ide-go/internal/auth"
	"ide-go/internal/config"
	"ide-go/internal/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configPath returns the config file location from the application defaults.
func configPath() (string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return "", fmt.Errorf("getting defaults: %w", err)
	}
	return defaults["config_path"], nil
}

// newApp reads the config and creates an IDEApp. The caller must defer app.Close().
func newApp() (*app.IDEApp, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewIDEApp(cfg)
	if err != nil {
		return nil, "", fmt.Errorf("initializing app: %w", err)
	}

	return a, path, nil
}

var rootCmd = &cobra.Command{
	Use:   "ide",
	Short: "Collaborative code editor backend",
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		a, path, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		logger := a.Logger()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = config.Watch(ctx, path, a.ReloadUsers, func(err error) {
			logger.Warn("config reload failed", "error", err)
		})
		if err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		}

		srv := a.HTTPServer()
		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", srv.Addr, "run", a.RunID())
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving: %w", err)
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and the audit database",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := migrate(cfg); err != nil {
			return err
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Repo Path: %s\n", cfg.RepoPath)
		fmt.Println("Add users with: ide config passwd NAME --team TEAM --write-team TEAM")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}

		cfg, err := config.ReadFromFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Repo Path: %s\n", cfg.RepoPath)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Listen:    %s\n", cfg.Server.Listen)
		fmt.Printf("Git:       %s (timeout %s, branch %s)\n", cfg.VCS.Binary, cfg.VCS.Timeout.Or(config.DefaultVCSTimeout), cfg.VCS.DefaultBranch)
		fmt.Printf("Lint:      %s\n", cfg.Lint.Type)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		fmt.Printf("Users:\n")
		for _, u := range cfg.Users {
			fmt.Printf("  %-16s read=%s write=%s\n", u.Name, strings.Join(u.Teams, ","), strings.Join(u.WriteTeams, ","))
		}
		return nil
	},
}

var configPasswdCmd = &cobra.Command{
	Use:   "passwd NAME",
	Short: "Add a user or change a user's password and teams",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		teams, _ := cmd.Flags().GetStringSlice("team")
		writeTeams, _ := cmd.Flags().GetStringSlice("write-team")
		email, _ := cmd.Flags().GetString("email")
		displayName, _ := cmd.Flags().GetString("display-name")

		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		password, err := readPassword()
		if err != nil {
			return err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}

		u := cfg.FindUser(args[0])
		if u == nil {
			cfg.Users = append(cfg.Users, config.UserConfig{Name: strings.ToLower(args[0])})
			u = &cfg.Users[len(cfg.Users)-1]
		}
		u.PasswordHash = hash
		if email != "" {
			u.Email = email
		}
		if displayName != "" {
			u.DisplayName = displayName
		}
		for _, t := range teams {
			if !slices.Contains(u.Teams, t) {
				u.Teams = append(u.Teams, t)
			}
		}
		for _, t := range writeTeams {
			if !slices.Contains(u.Teams, t) {
				u.Teams = append(u.Teams, t)
			}
			if !slices.Contains(u.WriteTeams, t) {
				u.WriteTeams = append(u.WriteTeams, t)
			}
		}

		if err := config.WriteToFile(path, cfg); err != nil {
			return err
		}
		fmt.Printf("Updated user %s\n", u.Name)
		return nil
	},
}

// readPassword prompts twice on a terminal, or reads one line from a pipe.
func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return line, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

// project command
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create TEAM PROJECT",
	Short: "Create a project's master repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.CreateProject(cmd.Context(), args[0], args[1]); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		fmt.Printf("Project %s/%s ready\n", args[0], args[1])
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View audited operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		team, _ := cmd.Flags().GetString("team")
		project, _ := cmd.Flags().GetString("project")
		user, _ := cmd.Flags().GetString("user")

		a, _, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(cmd.Context(), database.OperationFilter{
			Team:    team,
			Project: project,
			User:    user,
			Limit:   limit,
		})
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			fmt.Printf("%s  %-7s  %-12s  %-20s  %s  %-8s  %s\n",
				shortID(op.ID),
				op.Operation,
				op.User,
				op.Team+"/"+op.Project,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				op.Duration().Truncate(time.Millisecond),
			)
			if op.Error != "" {
				fmt.Printf("          %s\n", op.Error)
			}
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the audit database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := migrate(cfg); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date")
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the audit database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		db, err := database.NewDatabaseFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := db.BackupTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Database backed up to %s\n", args[0])
		return nil
	},
}

func migrate(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

func init() {
	// serve
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("env-file", ".env", "Environment file loaded before reading the config")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPasswdCmd)
	configPasswdCmd.Flags().StringSlice("team", nil, "Grant read access to a team (repeatable)")
	configPasswdCmd.Flags().StringSlice("write-team", nil, "Grant write access to a team (repeatable)")
	configPasswdCmd.Flags().String("email", "", "Commit email address")
	configPasswdCmd.Flags().String("display-name", "", "Commit author name")
	rootCmd.AddCommand(configCmd)

	// project subcommands
	projectCmd.AddCommand(projectCreateCmd)
	rootCmd.AddCommand(projectCmd)

	// history
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	historyCmd.Flags().String("team", "", "Only show operations on this team")
	historyCmd.Flags().String("project", "", "Only show operations on this project")
	historyCmd.Flags().String("user", "", "Only show operations by this user")

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbBackupCmd)
	rootCmd.AddCommand(dbCmd)
}
