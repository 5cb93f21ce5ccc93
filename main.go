package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// verboseLogKey enables Debug-level logging when set to "true".
const verboseLogKey = "PUTSYNC_LOG_VERBOSE"

func main() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:           "putsync",
		Short:         "Upload folders to Put.io.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newLoginCommand(), newUploadCommand())

	if err := rootCmd.Execute(); err != nil {
		handleFatalError(err)
	}
}

func newLoginCommand() *cobra.Command {
	var token string
	var prompt bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Put.io.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if token != "" && prompt {
				fmt.Println("--token and --prompt are mutually exclusive.")
				os.Exit(1)
			}
			return runLogin(token, prompt)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Use TOKEN to login.")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "Login with username and password instead of the browser flow.")
	return cmd
}

func newUploadCommand() *cobra.Command {
	var target, name, token string
	var force, verbose, quiet bool

	cmd := &cobra.Command{
		Use:   "upload FOLDER",
		Short: "Upload FOLDER to Put.io.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runUpload(args[0], target, name, token, force, verbose && !quiet)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "Remote path to upload into.")
	cmd.Flags().StringVar(&name, "name", "", "Name for the uploaded folder. Defaults to FOLDER's base name.")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing folder with the same name.")
	cmd.Flags().StringVar(&token, "token", "", "Use TOKEN as access token.")
	cmd.Flags().BoolVar(&verbose, "verbose", true, "Print a line for every uploaded file and created folder.")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Only print the banner and summary lines.")
	return cmd
}

func runLogin(token string, prompt bool) error {
	appConfig, err := LoadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if token != "" {
		if username, ok := VerifyToken(ctx, token); ok {
			if err := SaveToken(token); err != nil {
				return err
			}
			fmt.Printf("You've been successfully logged in as `%s`.\n", username)
			return nil
		}
		fmt.Println("User couldn't be authorized.")
		os.Exit(1)
	}

	if appConfig.AccessToken != "" {
		if username, ok := VerifyToken(ctx, appConfig.AccessToken); ok {
			fmt.Printf("You are already logged in as `%s`.\n", username)
			return nil
		}
	}

	var acquired string
	if prompt {
		username, password, promptErr := promptCredentials()
		if promptErr != nil {
			return promptErr
		}
		acquired, err = AcquireTokenCredentials(ctx, appConfig, username, password)
	} else {
		acquired, err = AcquireTokenOAuth(ctx, appConfig)
	}
	if err != nil {
		return err
	}

	username, ok := VerifyToken(ctx, acquired)
	if !ok {
		fmt.Println("User couldn't be authorized.")
		os.Exit(1)
	}
	if err := SaveToken(acquired); err != nil {
		return err
	}
	fmt.Printf("You've been successfully logged in as `%s`.\n", username)
	return nil
}

func runUpload(source, target, name, token string, force, verbose bool) error {
	appConfig, err := LoadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	accessToken := ""
	if token != "" {
		if _, ok := VerifyToken(ctx, token); ok {
			accessToken = token
		}
	}
	if accessToken == "" && appConfig.AccessToken != "" {
		if _, ok := VerifyToken(ctx, appConfig.AccessToken); ok {
			accessToken = appConfig.AccessToken
		}
	}
	if accessToken == "" {
		fmt.Println("You're not logged in. Run `putsync login --help` to see how to login.")
		os.Exit(1)
	}

	absSource, err := filepath.Abs(source)
	if err != nil {
		return err
	}
	stat, statErr := os.Stat(absSource)
	if statErr != nil || !stat.IsDir() {
		fmt.Printf("`%s` is not an existing folder.\n", source)
		os.Exit(1)
	}

	plan := UploadPlan{
		Source: absSource,
		Target: strings.Trim(target, "/"),
		Name:   name,
		Force:  force,
	}
	client := NewPutioGateway(accessToken)
	reporter := NewReporter(os.Stdout, verbose)

	return UploadFolder(ctx, client, plan, reporter)
}

func promptCredentials() (string, string, error) {
	fmt.Print("Username: ")
	username, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", "", err
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(username), string(password), nil
}

// handleFatalError renders taxonomy errors verbatim; anything else is an
// unhandled defect and prints generically with its type name.
func handleFatalError(err error) {
	var cliErr CLIError
	if errors.As(err, &cliErr) {
		fmt.Println(cliErr.Error())
	} else {
		fmt.Printf("An unknown error occurred: %s.\n", errorKind(err))
	}
	os.Exit(1)
}

func errorKind(err error) string {
	kind := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndex(kind, "."); i >= 0 {
		kind = kind[i+1:]
	}
	return kind
}
