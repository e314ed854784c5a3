package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskline/internal/app"
	"taskline/internal/domain"
	"taskline/internal/profile"
	"taskline/internal/server"
	"taskline/internal/storage"
	"taskline/internal/store"
	"taskline/internal/timer"
	"taskline/internal/validate"
	"taskline/internal/views"
)

var rootCmd = &cobra.Command{
	Use:   "tl",
	Short: "Taskline CLI",
	Long: `Taskline is a personal task manager with a calendar view and a pomodoro timer.
Tasks live in a local workspace database (.taskline/taskline.db); every change
is journaled to an event log, viewable with 'tl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := storage.EnsureWorkspace(workspace); err != nil {
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
	viper.SetEnvPrefix("TASKLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(signinCmd())
	rootCmd.AddCommand(signupCmd())
	rootCmd.AddCommand(signoutCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(todayCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(timerCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func signinCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sess, err := a.Auth.SignIn(ctx, email, password)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sess)
				}
				fmt.Printf("Signed in as %s <%s>\n", sess.User.FullName, sess.User.Email)
				fmt.Printf("Token: %s\n", sess.Token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signupCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Sign up",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sess, err := a.Auth.SignUp(ctx, name, email, password)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sess)
				}
				fmt.Printf("Welcome, %s. Signed in as %s\n", sess.User.FullName, sess.User.Email)
				fmt.Printf("Token: %s\n", sess.Token)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func signoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Auth.SignOut(ctx); err != nil {
					return err
				}
				fmt.Println("Signed out.")
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				u, err := a.Auth.Current(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(u)
				}
				fmt.Printf("%s <%s> (id %s)\n", u.FullName, u.Email, u.ID)
				return nil
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	task.AddCommand(taskAddCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskDoneCmd())
	task.AddCommand(taskEditCmd())
	task.AddCommand(taskRmCmd())
	return task
}

func taskAddCmd() *cobra.Command {
	var form domain.TaskForm
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.TaskForm(form); err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Store.Create(ctx, form)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(t)
				}
				fmt.Printf("Added %s (%s %s): %s\n", t.ID, t.DueDate, t.Time, t.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "task title")
	cmd.Flags().StringVar(&form.Description, "desc", "", "description")
	cmd.Flags().StringVar(&form.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&form.Time, "time", "", "due time (HH:MM)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("due")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func taskListCmd() *cobra.Command {
	var query, date string
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				list := a.Store.Tasks()
				if date != "" {
					list = views.TasksOnDate(list, date)
				}
				list = views.FilterBySearch(list, query)
				open, complete := views.PartitionByStatus(list)
				if !all {
					complete = nil
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"open": open, "complete": complete})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Due", "Time", "Status"})
				for _, t := range append(open, complete...) {
					tw.AppendRow(table.Row{t.ID, t.Title, t.DueDate, t.Time, t.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query, "q", "", "title search (case-insensitive)")
	cmd.Flags().StringVar(&date, "date", "", "filter by due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&all, "all", false, "include completed tasks")
	return cmd
}

func taskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Store.FindByID(args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(t)
				}
				fmt.Printf("%s [%s]\n", t.Title, t.Status)
				fmt.Printf("  due: %s at %s\n", views.RelativeDateLabel(t.DueDate, time.Now()), t.Time)
				if t.Description != "" {
					fmt.Printf("  %s\n", t.Description)
				}
				fmt.Printf("  id: %s  created: %s\n", t.ID, t.CreatedAt)
				return nil
			})
		},
	}
	return cmd
}

func taskDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between open and complete",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Store.ToggleStatus(ctx, args[0]); err != nil {
					return err
				}
				t, err := a.Store.FindByID(args[0])
				if errors.Is(err, store.ErrNotFound) {
					fmt.Println("No such task; nothing to do.")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s is now %s\n", t.Title, t.Status)
				return nil
			})
		},
	}
	return cmd
}

func taskEditCmd() *cobra.Command {
	var title, desc, due, at, status string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := store.TaskPatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("desc") {
				patch.Description = &desc
			}
			if cmd.Flags().Changed("due") {
				patch.DueDate = &due
			}
			if cmd.Flags().Changed("time") {
				patch.Time = &at
			}
			if cmd.Flags().Changed("status") {
				patch.Status = &status
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				existing, err := a.Store.FindByID(args[0])
				if errors.Is(err, store.ErrNotFound) {
					fmt.Println("No such task; nothing to do.")
					return nil
				}
				if err != nil {
					return err
				}
				if err := validate.TaskForm(patch.Merged(existing)); err != nil {
					return err
				}
				if patch.Status != nil {
					if err := validate.TaskStatus(*patch.Status); err != nil {
						return err
					}
				}
				if err := a.Store.Update(ctx, args[0], patch); err != nil {
					return err
				}
				t, err := a.Store.FindByID(args[0])
				if err != nil {
					return err
				}
				return printJSONOrText(t, func() {
					fmt.Printf("Updated %s: %s\n", t.ID, t.Title)
				})
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&at, "time", "", "due time (HH:MM)")
	cmd.Flags().StringVar(&status, "status", "", "status (open, complete)")
	return cmd
}

func taskRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("Removed.")
				return nil
			})
		},
	}
	return cmd
}

func calendarCmd() *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month calendar with task counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			if month < 1 || month > 12 {
				return fmt.Errorf("month must be 1-12")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				cells := views.MonthGrid(year, time.Month(month))
				counts := views.CountOnDates(a.Store.Tasks())
				if viper.GetBool("json") {
					return printJSON(map[string]any{"year": year, "month": month, "cells": cells, "counts": counts})
				}
				renderCalendar(year, time.Month(month), cells, counts)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(&month, "month", 0, "month 1-12 (default: current)")
	return cmd
}

func renderCalendar(year int, month time.Month, cells []int, counts map[string]int) {
	fmt.Printf("%s %d\n", month, year)
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"})
	row := make(table.Row, 0, 7)
	for _, day := range cells {
		cell := ""
		if day > 0 {
			cell = fmt.Sprintf("%d", day)
			date := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
			if n := counts[date]; n > 0 {
				cell = fmt.Sprintf("%d (%d)", day, n)
			}
		}
		row = append(row, cell)
		if len(row) == 7 {
			tw.AppendRow(row)
			row = make(table.Row, 0, 7)
		}
	}
	if len(row) > 0 {
		for len(row) < 7 {
			row = append(row, "")
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

func todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show tasks due today",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				date := time.Now().Format(views.DateLayout)
				list := views.TasksOnDate(a.Store.Tasks(), date)
				if viper.GetBool("json") {
					return printJSON(list)
				}
				if len(list) == 0 {
					fmt.Println("Nothing due today.")
					return nil
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Time", "Title", "Status"})
				for _, t := range list {
					tw.AppendRow(table.Row{t.Time, t.Title, t.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func profileCmd() *cobra.Command {
	prof := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile",
	}
	prof.AddCommand(profileShowCmd())
	prof.AddCommand(profileUpdateCmd())
	return prof
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p := a.Profile.Load(ctx)
				if viper.GetBool("json") {
					return printJSON(p)
				}
				fmt.Printf("%s <%s>\n", p.FullName, p.Email)
				fmt.Printf("  avatar: %s\n", p.Avatar)
				return nil
			})
		},
	}
}

func profileUpdateCmd() *cobra.Command {
	var name, email, avatar string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := profile.Patch{}
			if cmd.Flags().Changed("name") {
				patch.FullName = &name
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("avatar") {
				patch.Avatar = &avatar
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p, err := a.Profile.Update(ctx, patch)
				if err != nil {
					return err
				}
				return printJSONOrText(p, func() {
					fmt.Printf("Profile saved: %s <%s>\n", p.FullName, p.Email)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar URL")
	return cmd
}

func timerCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "timer",
		Short: "Pomodoro timer",
	}
	t.AddCommand(timerPresetsCmd())
	t.AddCommand(timerRunCmd())
	return t
}

func timerPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "Show configured durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				p := a.Config.Presets()
				if viper.GetBool("json") {
					return printJSON(map[string]string{
						"pomodoro":   p.Pomodoro.String(),
						"shortBreak": p.ShortBreak.String(),
						"longBreak":  p.LongBreak.String(),
					})
				}
				fmt.Printf("pomodoro: %s  short break: %s  long break: %s\n",
					timer.FormatClock(p.Pomodoro), timer.FormatClock(p.ShortBreak), timer.FormatClock(p.LongBreak))
				return nil
			})
		},
	}
}

func timerRunCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a countdown in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Timer.Start(timer.Kind(kind))
				ticker := time.NewTicker(time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						a.Timer.Stop()
						fmt.Println()
						return nil
					case <-ticker.C:
						if a.Timer.Tick() {
							fmt.Printf("\r%s done. Sessions: %d\n", kind, a.Timer.Sessions())
							return nil
						}
						fmt.Printf("\r%s  ", timer.FormatClock(a.Timer.Remaining()))
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(timer.KindPomodoro), "pomodoro, short-break, or long-break")
	return cmd
}

func logCmd() *cobra.Command {
	logc := &cobra.Command{
		Use:   "log",
		Short: "Inspect the change log",
	}
	logc.AddCommand(logTailCmd())
	return logc
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items, err := a.Log.Latest(ctx, n, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"TS", "Type", "Entity", "Payload"})
				for _, e := range items {
					tw.AppendRow(table.Row{e.TS, e.Type, e.EntityID, e.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if addr == "" {
					addr = a.Config.Server.Addr
				}
				handler, err := server.New(server.Config{App: a, BasePath: basePath})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Taskline API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(ctx, viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJSONOrText(v any, text func()) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	text()
	return nil
}
