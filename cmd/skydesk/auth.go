package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/ipc"
	"golang.org/x/term"
)

func printAuthUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  skydesk auth login [--email EMAIL]")
	fmt.Fprintln(w, "  skydesk auth signup [--email EMAIL]")
	fmt.Fprintln(w, "  skydesk auth enroll")
	fmt.Fprintln(w, "  skydesk auth connect")
	fmt.Fprintln(w, "  skydesk auth status")
	fmt.Fprintln(w, "  skydesk auth install")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Account commands run through the daemon's auth bridge.")
	fmt.Fprintln(w, "The password is always read from the terminal without echo.")
}

func runAuth(args []string) int {
	if len(args) == 0 {
		printAuthUsage(os.Stderr)
		return 2
	}
	if isHelp(args[0]) {
		printAuthUsage(os.Stdout)
		return 0
	}

	client := ipc.NewClient()

	switch args[0] {
	case "login", "signup":
		fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		email := fs.String("email", "", "Account email (prompted when empty)")
		fs.Usage = func() {
			fmt.Fprintf(os.Stderr, "Usage: skydesk auth %s [--email EMAIL]\n", args[0])
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		if code := parseNoArgs(fs, "auth "+args[0], args[1:]); code >= 0 {
			return code
		}

		creds, err := promptCredentials(*email)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		var resp *authbridge.AuthResponse
		if args[0] == "login" {
			resp, err = client.Login(creds.Email, creds.Password)
		} else {
			resp, err = client.Signup(creds.Email, creds.Password)
		}
		return printAuthResult(args[0], resp, err)

	case "enroll", "connect", "status", "install":
		if len(args) > 1 {
			if isHelp(args[1]) {
				fmt.Fprintf(os.Stdout, "Usage: skydesk auth %s\n", args[0])
				return 0
			}
			fmt.Fprintf(os.Stderr, "auth %s takes no arguments\n", args[0])
			return 2
		}
		switch args[0] {
		case "enroll":
			resp, err := client.EnrollDevice()
			return printAuthResult("enroll", resp, err)
		case "connect":
			resp, err := client.Connect()
			return printAuthResult("connect", resp, err)
		case "status":
			return printAuthStatus(client)
		default:
			fmt.Fprintln(os.Stderr, "Installing auth dependencies (this can take a while)...")
			out, err := client.InstallDependencies()
			if out != "" {
				fmt.Print(out)
				if !strings.HasSuffix(out, "\n") {
					fmt.Println()
				}
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			return 0
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown auth command: %s\n\n", args[0])
		printAuthUsage(os.Stderr)
		return 2
	}
}

func promptCredentials(email string) (ipc.CredentialsPayload, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ipc.CredentialsPayload{}, fmt.Errorf("a terminal is required to read the password")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Fprint(os.Stderr, "Email: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return ipc.CredentialsPayload{}, fmt.Errorf("read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return ipc.CredentialsPayload{}, fmt.Errorf("email is required")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ipc.CredentialsPayload{}, fmt.Errorf("read password: %w", err)
	}
	if len(pw) == 0 {
		return ipc.CredentialsPayload{}, fmt.Errorf("password is required")
	}
	return ipc.CredentialsPayload{Email: email, Password: string(pw)}, nil
}

func printAuthResult(action string, resp *authbridge.AuthResponse, err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error"
		}
		fmt.Fprintf(os.Stderr, "%s failed: %s\n", action, msg)
		return 1
	}
	fmt.Printf("%s: ok\n", action)
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		fmt.Println(string(resp.Data))
	}
	return 0
}

func printAuthStatus(client *ipc.Client) int {
	st, err := client.AuthStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("authenticated:     %v\n", st.Authenticated)
	fmt.Printf("device_enrolled:   %v\n", st.DeviceEnrolled)
	fmt.Printf("connected:         %v\n", st.Connected)
	if st.DeviceID != "" {
		fmt.Printf("device_id:         %s\n", st.DeviceID)
	}
	fmt.Printf("platform:          %s\n", st.Platform)
	fmt.Printf("desktop_env:       %v\n", st.DesktopEnvAvailable)
	return 0
}
