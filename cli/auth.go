package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"storefront/api"
	"storefront/cart"
	"storefront/domain"
)

func init() {
	// register
	var reg api.RegisterRequest
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account (sends a verification code)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Register(context.Background(), reg); err != nil {
				return err
			}
			fmt.Println("verification code sent, confirm with: storefront verify-otp --email", reg.Email, "--code <code>")
			return nil
		},
	}
	registerCmd.Flags().StringVar(&reg.Username, "username", "", "username")
	registerCmd.Flags().StringVar(&reg.Email, "email", "", "email")
	registerCmd.Flags().StringVar(&reg.Phone, "phone", "", "phone")
	registerCmd.Flags().StringVar(&reg.Password, "password", "", "password")
	registerCmd.Flags().StringVar(&reg.Gender, "gender", "", "gender")
	rootCmd.AddCommand(registerCmd)

	// verify-otp
	var verifyEmail, verifyCode string
	verifyCmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Confirm registration with the emailed code",
		RunE: func(cmd *cobra.Command, args []string) error {
			pushGuestCart(context.Background())
			res, err := apiClient.VerifyOTP(context.Background(), verifyEmail, verifyCode)
			if err != nil {
				if domain.IsOTPExpiredError(err) {
					return errors.New("verification code expired, request a new one with: storefront resend-otp --email " + verifyEmail)
				}
				return err
			}
			return startSession(res)
		},
	}
	verifyCmd.Flags().StringVar(&verifyEmail, "email", "", "email")
	verifyCmd.Flags().StringVar(&verifyCode, "code", "", "verification code")
	rootCmd.AddCommand(verifyCmd)

	// resend-otp
	var resendEmail string
	resendCmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Request a fresh verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.ResendOTP(context.Background(), resendEmail); err != nil {
				return err
			}
			fmt.Println("verification code sent")
			return nil
		},
	}
	resendCmd.Flags().StringVar(&resendEmail, "email", "", "email")
	rootCmd.AddCommand(resendCmd)

	// login
	var loginUsername, loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and obtain a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pushGuestCart(context.Background())
			res, err := apiClient.Login(context.Background(), loginUsername, loginPassword)
			if err != nil {
				return err
			}
			return startSession(res)
		},
	}
	loginCmd.Flags().StringVar(&loginUsername, "username", "", "username")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password")
	rootCmd.AddCommand(loginCmd)

	// logout
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and the local cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sessions.ClearSession(); err != nil {
				return err
			}
			if _, err := cart.NewStore(kvStore).Clear(); err != nil {
				return err
			}
			apiClient.InvalidateCart()
			fmt.Println("logged out")
			return nil
		},
	}
	rootCmd.AddCommand(logoutCmd)

	// whoami
	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the active session identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := sessions.Resolve()
			if id.Kind == domain.IdentityAuthenticated {
				printJSON(id.User)
				return nil
			}
			fmt.Println("guest:", id.GuestID)
			return nil
		},
	}
	rootCmd.AddCommand(whoamiCmd)

	// profile
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "View and update the profile",
	}
	rootCmd.AddCommand(profileCmd)

	profileShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch the profile from the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := sessions.Session()
			if user == nil {
				return errors.New("not logged in")
			}
			p, err := apiClient.Profile(context.Background(), user.ID)
			if err != nil {
				return err
			}
			printJSON(p)
			return nil
		},
	}
	profileCmd.AddCommand(profileShowCmd)

	var pUsername, pEmail, pPhone, pGender string
	profileUpdateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := sessions.Session()
			if user == nil {
				return errors.New("not logged in")
			}
			var patch domain.UserPatch
			if cmd.Flags().Changed("username") {
				patch.Username = &pUsername
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &pEmail
			}
			if cmd.Flags().Changed("phone") {
				patch.Phone = &pPhone
			}
			if cmd.Flags().Changed("gender") {
				patch.Gender = &pGender
			}
			updated, err := apiClient.UpdateProfile(context.Background(), user.ID, patch)
			if err != nil {
				slog.Error("profile update failed", "user_id", user.ID, "error", err)
				return err
			}
			if err := sessions.PatchUser(patch); err != nil {
				return err
			}
			printJSON(updated)
			return nil
		},
	}
	profileUpdateCmd.Flags().StringVar(&pUsername, "username", "", "username")
	profileUpdateCmd.Flags().StringVar(&pEmail, "email", "", "email")
	profileUpdateCmd.Flags().StringVar(&pPhone, "phone", "", "phone")
	profileUpdateCmd.Flags().StringVar(&pGender, "gender", "", "gender")
	profileCmd.AddCommand(profileUpdateCmd)

	var oldPassword, newPassword string
	changePasswordCmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := sessions.Session()
			if user == nil {
				return errors.New("not logged in")
			}
			if err := apiClient.ChangePassword(context.Background(), user.ID, oldPassword, newPassword); err != nil {
				return err
			}
			fmt.Println("password changed")
			return nil
		},
	}
	changePasswordCmd.Flags().StringVar(&oldPassword, "old", "", "current password")
	changePasswordCmd.Flags().StringVar(&newPassword, "new", "", "new password")
	profileCmd.AddCommand(changePasswordCmd)
}

// pushGuestCart mirrors the local optimistic cart into the server-side guest
// cart so the backend's merge on login/verification sees it. Best effort: a
// failed push must not block the login itself.
func pushGuestCart(ctx context.Context) {
	id := sessions.Resolve()
	if id.Kind != domain.IdentityGuest {
		return
	}
	state := cart.NewStore(kvStore).State()
	if len(state.Items) == 0 {
		return
	}
	if err := apiClient.ClearCart(ctx); err != nil {
		slog.Warn("guest cart sync failed", "error", err)
		return
	}
	for _, li := range state.Items {
		if err := apiClient.AddItem(ctx, li.ProductID, li.Quantity); err != nil {
			slog.Warn("guest cart sync failed", "product_id", li.ProductID, "error", err)
		}
	}
}

// startSession persists the authenticated session and resets cart caches:
// the guest id stops being sent from here on, and the server now owns the
// canonical cart (it merged the guest cart during login/verification).
func startSession(res *api.AuthResult) error {
	if err := sessions.SetSession(res.User, res.AccessToken, res.RefreshToken); err != nil {
		return err
	}
	if _, err := cart.NewStore(kvStore).Clear(); err != nil {
		return err
	}
	apiClient.InvalidateCart()
	slog.Info("session started", "user_id", res.User.ID, "username", res.User.Username)
	printJSON(res.User)
	return nil
}
