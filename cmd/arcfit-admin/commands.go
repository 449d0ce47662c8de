package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/govindavashishtha/arcfit-admin/api"
)

var (
	flagEmail    string
	flagPassword string
	flagPage     int
	flagLimit    int
	flagSearch   string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate against the ArcFit API and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagEmail == "" || flagPassword == "" {
			return errors.New("--email and --password are required")
		}

		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.manager.Stop()

		if err := s.manager.Login(cmd.Context(), flagEmail, flagPassword); err != nil {
			state := s.manager.State()
			if state.Error != "" {
				return errors.New(state.Error)
			}
			return err
		}

		state := s.manager.State()
		fmt.Printf("Logged in as %s %s <%s> (%s)\n",
			state.User.FirstName, state.User.LastName, state.User.Email, state.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		if err := s.manager.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated admin's profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		if _, ok := s.store.AccessToken(); !ok {
			return errors.New("not logged in")
		}

		profile, err := s.manager.CurrentUser(cmd.Context())
		if err != nil {
			return errors.New("session expired, please log in again")
		}

		fmt.Printf("%s %s <%s>\n", profile.FirstName, profile.LastName, profile.Email)
		fmt.Printf("  role:    %s\n", profile.Role)
		if profile.CenterID != "" {
			fmt.Printf("  center:  %s\n", profile.CenterID)
		}
		if profile.SocietyID != "" {
			fmt.Printf("  society: %s\n", profile.SocietyID)
		}
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a token refresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		if err := s.manager.Refresh(cmd.Context()); err != nil {
			return errors.New("refresh failed, session terminated")
		}
		fmt.Println("Access token refreshed.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session state without touching the network",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}

		if _, ok := s.store.AccessToken(); !ok {
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Println("Logged in.")
		if expiresAt, ok := s.store.ExpiresAt(); ok {
			fmt.Printf("  access token expires: %s (%s)\n",
				expiresAt.Format(time.RFC3339), time.Until(expiresAt).Round(time.Second))
		}
		if s.store.IsExpired() {
			fmt.Println("  access token is stale; next API call will refresh it")
		}
		return nil
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List members",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		if s.store.IsExpired() {
			if err := s.manager.Refresh(cmd.Context()); err != nil {
				return errors.New("session expired, please log in again")
			}
		}

		page, err := s.client.ListMembers(cmd.Context(), api.PageParams{
			Page:   flagPage,
			Limit:  flagLimit,
			Search: flagSearch,
		})
		if err != nil {
			return err
		}

		for _, m := range page.Items {
			fmt.Printf("%-8s %-20s %-28s %-6s %s\n",
				m.MemberID, m.FirstName+" "+m.LastName, m.Email, m.CenterID, m.Status)
		}
		fmt.Printf("page %d of %d total\n", page.Page, page.Total)
		return nil
	},
}

var importMembersCmd = &cobra.Command{
	Use:   "import-members <file.csv>",
	Short: "Bulk-import members from a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		result, err := s.client.ImportMembersCSV(cmd.Context(), args[0], f)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d, failed %d\n", result.Imported, result.Failed)
		for _, importErr := range result.Errors {
			fmt.Printf("  %s\n", importErr)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "Admin email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "Admin password")

	membersCmd.Flags().IntVar(&flagPage, "page", 1, "Page number")
	membersCmd.Flags().IntVar(&flagLimit, "limit", 20, "Page size")
	membersCmd.Flags().StringVar(&flagSearch, "search", "", "Search filter")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, refreshCmd, statusCmd, membersCmd, importMembersCmd, serveStubCmd)
}
