package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/tasklist/internal/client"
	"github.com/gurkanbulca/tasklist/internal/models"
	"github.com/gurkanbulca/tasklist/pkg/auth"
)

var statusHelp = fmt.Sprintf("%s, %s, %s or any other value",
	models.TaskStatusOpen, models.TaskStatusInProgress, models.TaskStatusDone)

type app struct {
	Server string
	Token  string
	CSRF   string
	Yes    bool

	api *client.APIClient
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "tasks",
		Short:        "Command line client for the task list API",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Mint a development token
  tasks token --user-id 6f1c... --name Alice

  # Work with tasks
  tasks list --status open
  tasks create --name "Write docs" --status open --due 2024-01-10
  tasks status <id> done
  tasks delete <id> <id>
`),
	}

	cmd.PersistentFlags().StringVar(&a.Server, "server", envOr("TASKS_SERVER", "http://localhost:8080"), "API base URL (TASKS_SERVER)")
	cmd.PersistentFlags().StringVar(&a.Token, "token", os.Getenv("TASKS_TOKEN"), "bearer token (TASKS_TOKEN)")
	cmd.PersistentFlags().StringVar(&a.CSRF, "csrf", os.Getenv("TASKS_CSRF"), "CSRF token, fetched from the server when empty (TASKS_CSRF)")

	cmd.AddCommand(
		newListCmd(a),
		newCreateCmd(a),
		newEditCmd(a),
		newStatusCmd(a),
		newDueCmd(a),
		newDeleteCmd(a),
		newTokenCmd(),
	)
	return cmd
}

// connect builds the API client and fetches a CSRF token when none is given.
func (a *app) connect(ctx context.Context) (*client.APIClient, error) {
	if a.api != nil {
		return a.api, nil
	}
	if a.Token == "" {
		return nil, errors.New("missing --token (or TASKS_TOKEN)")
	}

	api, err := client.NewAPIClient(a.Server, a.Token, a.CSRF, nil)
	if err != nil {
		return nil, err
	}
	if a.CSRF == "" {
		token, err := api.CSRFToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch csrf token: %w", err)
		}
		api.SetCSRFToken(token)
	}
	a.api = api
	return api, nil
}

func (a *app) controller(cmd *cobra.Command, api *client.APIClient, reload func()) *client.Controller {
	confirm := stdinConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
	if a.Yes {
		confirm = func(string) bool { return true }
	}
	return client.NewController(client.Config{
		API:     api,
		Toaster: &termToaster{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()},
		Confirm: confirm,
		Reload:  reload,
		// Reload inline before the command returns.
		Schedule: func(d time.Duration, f func()) {
			time.Sleep(d)
			f()
		},
	})
}

// silent marks errors the toaster already reported.
func silent(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("request failed with status %d", apiErr.Status)
	}
	return err
}

func newListCmd(a *app) *cobra.Command {
	var q client.ListQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks you created or are assigned to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			tasks, page, err := api.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			printTasks(cmd.OutOrStdout(), tasks, page)
			return nil
		},
	}

	cmd.Flags().StringVar(&q.Status, "status", "", "only tasks with this status ("+statusHelp+")")
	cmd.Flags().StringVar(&q.SearchName, "search", "", "case-insensitive name search")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 0, "page size (server default when 0)")
	return cmd
}

type formFlags struct {
	name        string
	description string
	status      string
	due         string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "task name")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.status, "status", "", "task status ("+statusHelp+")")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
}

// apply sets the fields whose flags were given.
func (f *formFlags) apply(cmd *cobra.Command, ctrl *client.Controller) error {
	fields := []struct {
		flag, field, value string
	}{
		{"name", "name", f.name},
		{"description", "description", f.description},
		{"status", "status", f.status},
		{"due", "due_date", f.due},
	}
	for _, fl := range fields {
		if !cmd.Flags().Changed(fl.flag) {
			continue
		}
		if err := ctrl.SetField(fl.field, fl.value); err != nil {
			return err
		}
	}
	return nil
}

func newCreateCmd(a *app) *cobra.Command {
	var f formFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ctrl := a.controller(cmd, api, nil)
			if err := ctrl.OpenCreate("tasks"); err != nil {
				return err
			}
			if err := f.apply(cmd, ctrl); err != nil {
				return err
			}
			return silent(ctrl.Submit(cmd.Context()))
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f formFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			ctrl := a.controller(cmd, api, nil)
			if err := ctrl.OpenEdit(cmd.Context(), "tasks/"+args[0]+"/edit"); err != nil {
				return silent(err)
			}
			if err := f.apply(cmd, ctrl); err != nil {
				return err
			}
			return silent(ctrl.Submit(cmd.Context()))
		},
	}
	f.register(cmd)
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change a task's status",
		Long:  "Change a task's status. Common values: " + statusHelp + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			_, msg, err := api.ChangeStatus(cmd.Context(), args[0], args[1])
			return report(cmd, msg, err)
		},
	}
}

func newDueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "due <id> <YYYY-MM-DD>",
		Short: "Change a task's due date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			_, msg, err := api.ChangeDueDate(cmd.Context(), args[0], args[1])
			return report(cmd, msg, err)
		},
	}
}

// report toasts the outcome of a single request.
func report(cmd *cobra.Command, msg string, err error) error {
	toaster := &termToaster{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()}
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			for _, line := range apiErr.Messages() {
				toaster.Error(line)
			}
			return silent(err)
		}
		return err
	}
	toaster.Success(msg)
	return nil
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			reload := func() {
				tasks, page, err := api.List(cmd.Context(), client.ListQuery{})
				if err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
					return
				}
				printTasks(cmd.OutOrStdout(), tasks, page)
			}

			ctrl := a.controller(cmd, api, reload)
			for _, id := range args {
				ctrl.Toggle(id, true)
			}
			return silent(ctrl.DeleteSelected(cmd.Context(), "tasks"))
		},
	}
	cmd.Flags().BoolVarP(&a.Yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		name   string
		email  string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("missing --secret (or JWT_ACCESS_SECRET)")
			}
			token, err := auth.NewTokenManager(secret, ttl).GenerateAccessToken(userID, name, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "user UUID")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&secret, "secret", envOr("JWT_ACCESS_SECRET", os.Getenv("JWT_SECRET")), "signing secret (JWT_ACCESS_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
