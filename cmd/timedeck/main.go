package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hgdelgado/timedeck/internal/api"
	"github.com/hgdelgado/timedeck/internal/config"
	"github.com/hgdelgado/timedeck/internal/models"
	"github.com/hgdelgado/timedeck/internal/server"
	"github.com/hgdelgado/timedeck/internal/session"
	"github.com/hgdelgado/timedeck/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "timedeck",
	Short: "Terminal console for projects, tasks and time tracking",
	Long:  `Timedeck is a terminal admin console for a project and time tracking backend: users, roles, projects, tasks and time entries.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		sess, err := session.Load()
		if err != nil && !errors.Is(err, session.ErrNotLoggedIn) {
			fmt.Fprintf(os.Stderr, "Error loading session: %v\n", err)
			os.Exit(1)
		}

		client := api.NewClient(cfg.APIURL, cfg.Timeout(), sess)

		if err := tui.Run(cfg, client, sess); err != nil {
			logError("tui", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Print("Password: ")
			if _, err := fmt.Scanln(&password); err != nil {
				fmt.Fprintln(os.Stderr, "Error reading password")
				os.Exit(1)
			}
		}

		client := api.NewClient(cfg.APIURL, cfg.Timeout(), nil)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		defer cancel()

		token, err := client.Login(ctx, api.LoginRequest{Email: args[0], Password: password})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
			os.Exit(1)
		}

		sess, err := session.Decode(token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := session.Save(sess); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving session: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Signed in as %s (%s)\n", sess.Name, strings.Join(sess.Roles, ", "))
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			fmt.Print("Password: ")
			if _, err := fmt.Scanln(&password); err != nil {
				fmt.Fprintln(os.Stderr, "Error reading password")
				os.Exit(1)
			}
		}

		client := api.NewClient(cfg.APIURL, cfg.Timeout(), nil)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
		defer cancel()

		user, err := client.Register(ctx, models.UserDraft{
			UserName: args[0],
			Email:    args[1],
			Password: password,
			Roles:    []string{models.RoleUser},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Registration failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Registered %s (%s). Run `timedeck login %s` to sign in.\n",
			user.UserName, user.Email, user.Email)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	Run: func(cmd *cobra.Command, args []string) {
		if err := session.Clear(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Signed out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Run: func(cmd *cobra.Command, args []string) {
		sess, err := session.Load()
		if errors.Is(err, session.ErrNotLoggedIn) {
			fmt.Println("Not signed in.")
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("User:    %s\n", sess.Name)
		fmt.Printf("ID:      %s\n", sess.UserID)
		fmt.Printf("Roles:   %s\n", strings.Join(sess.Roles, ", "))
		if sess.Expired() {
			fmt.Println("Session: expired")
		} else {
			fmt.Printf("Session: valid until %s\n", sess.Expiry.Format(time.RFC1123))
		}
	},
}

var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Run the embedded development backend",
	Hidden: true,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		dbPath := cfg.ServeDB
		if dbPath == "" {
			dbPath, err = config.DatabasePath()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		db, err := server.OpenDB(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		srv := server.New(db, cfg.ServeJWTSecret)
		if err := srv.Seed(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error seeding database: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Listening on %s (db %s)\n", cfg.ServeAddr, dbPath)
		fmt.Printf("Default admin: admin@timedeck.local / admin123 (role %s)\n", models.RoleAdmin)

		if err := http.ListenAndServe(cfg.ServeAddr, srv.Handler()); err != nil {
			logError("serve", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logError(scope string, err error) {
	logPath, pathErr := config.ErrorLogPath()
	if pathErr != nil {
		return
	}

	if err := config.EnsureDirectories(); err != nil {
		return
	}

	f, fileErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] %v\n", scope, err)
}
