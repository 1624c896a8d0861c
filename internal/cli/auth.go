package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication",
	Long:  `Manage your account on the irontime server.`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the server",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout from the server",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current account",
	RunE:  runStatus,
}

func init() {
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringP("username", "u", "", "Username (prompted when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	username, _ := cmd.Flags().GetString("username")
	if username == "" {
		username = prompt("Username: ")
	}
	password, err := promptSecret("Password: ")
	if err != nil {
		return err
	}

	fmt.Println("🔄 Logging in...")
	if err := c.Login(context.Background(), username, password); err != nil {
		return err
	}

	fmt.Println("✅ Logged in successfully!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	if !c.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Println("🔄 Logging out...")
	if err := c.Logout(context.Background()); err != nil {
		return err
	}

	fmt.Println("✅ Logged out successfully.")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	username := prompt("Username: ")
	email := prompt("Email: ")

	password, err := promptSecret("Password: ")
	if err != nil {
		return err
	}
	confirmPassword, err := promptSecret("Confirm Password: ")
	if err != nil {
		return err
	}
	if password != confirmPassword {
		return fmt.Errorf("passwords do not match")
	}

	fmt.Println("🔄 Creating account...")
	if err := c.Register(context.Background(), username, email, password); err != nil {
		return err
	}

	fmt.Println("✅ Account created and logged in! Default categories are ready.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	fmt.Printf("Server: %s\n", c.ServerURL())
	if !c.IsLoggedIn() {
		fmt.Println("Not logged in.")
		return nil
	}

	me, err := c.Me(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("User:   %s <%s>\n", me.Username, me.Email)
	if exp := c.Session().ExpiresAt; exp != "" {
		fmt.Printf("Expires: %s\n", exp)
	}
	return nil
}
