package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/heart2help/fundclient/cmd/fundctl/config"
	"github.com/heart2help/fundclient/funding"
	"github.com/heart2help/fundclient/pkg/ethcontract"
	"github.com/heart2help/fundclient/pkg/ethunit"
	"github.com/heart2help/fundclient/pkg/ethwallet"
	"github.com/heart2help/fundclient/pkg/logger"
)

const usage = `usage: fundctl <panel>

panels:
  login   show wallet connection status and connect
  admin   create campaigns and withdraw funds (administrator only)
  donor   register and donate to campaigns
`

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	panel := os.Args[1]

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !common.IsHexAddress(cfg.ContractAddress) {
		log.ErrorContext(ctx, "Invalid contract address", slog.String("address", cfg.ContractAddress))
		os.Exit(1)
	}

	stdin := bufio.NewScanner(os.Stdin)

	// Wallet boundary
	wallet, err := ethwallet.Open(ctx, cfg.NodeURL, cfg.KeystoreDir, passphrasePrompter(cfg, stdin))
	if err != nil {
		log.ErrorContext(ctx, "Failed to open wallet", slog.Any("error", err))
		os.Exit(1)
	}
	defer wallet.Close()

	// Contract boundary
	contract, err := ethcontract.New(wallet.Backend(), common.HexToAddress(cfg.ContractAddress), wallet)
	if err != nil {
		log.ErrorContext(ctx, "Failed to bind contract", slog.Any("error", err))
		os.Exit(1)
	}

	session := funding.NewSession(wallet, contract, log,
		funding.WithSessionConfirmer(stdinConfirmer(stdin)),
	)

	// Start the account-change watcher and subscribe for event logging
	events, done := session.Start(ctx)
	subCloser := setupEventLogging(ctx, events, log)
	defer subCloser()

	var runErr error
	switch panel {
	case "login":
		runErr = runLogin(ctx, session)
	case "admin":
		runErr = runAdmin(ctx, session, stdin)
	case "donor":
		runErr = runDonor(ctx, session, stdin)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	stop()
	<-done

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.ErrorContext(context.Background(), "Panel failed", slog.Any("error", runErr))
		os.Exit(1)
	}
}

// passphrasePrompter prefers the configured passphrase and falls back to a
// stdin prompt.
func passphrasePrompter(cfg config.Config, stdin *bufio.Scanner) ethwallet.Prompter {
	return ethwallet.PrompterFunc(func(account common.Address) (string, error) {
		if cfg.Passphrase != "" {
			return cfg.Passphrase, nil
		}
		fmt.Printf("Passphrase for %s: ", ethunit.ShortAddress(account))
		if !stdin.Scan() {
			return "", errors.New("prompt declined")
		}
		return stdin.Text(), nil
	})
}

// stdinConfirmer asks a y/N question before destructive actions.
func stdinConfirmer(stdin *bufio.Scanner) funding.Confirmer {
	return funding.ConfirmerFunc(func(prompt string) bool {
		fmt.Printf("%s [y/N]: ", prompt)
		if !stdin.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(stdin.Text()))
		return answer == "y" || answer == "yes"
	})
}

func runLogin(ctx context.Context, session *funding.Session) error {
	id, connected, err := session.Resolve(ctx)
	if err != nil {
		return err
	}
	if !connected {
		fmt.Println("No wallet session. Connecting...")
		if id, err = session.Connect(ctx); err != nil {
			return err
		}
	}

	fmt.Printf("Wallet connected: %s\n", ethunit.ShortAddress(id.Account))
	if id.Admin {
		fmt.Println("Administrator account. Use `fundctl admin`.")
	} else {
		fmt.Println("Donor account. Use `fundctl donor`.")
	}
	return nil
}

func runAdmin(ctx context.Context, session *funding.Session, stdin *bufio.Scanner) error {
	if err := session.OpenPanel(ctx, funding.PanelAdmin); err != nil {
		if errors.Is(err, funding.ErrAccessDenied) {
			fmt.Println("Access denied. You are not the administrator.")
		}
		return err
	}

	printView(session)
	fmt.Println("commands: list | create | withdraw <id> | reload | quit")

	return commandLoop(ctx, stdin, func(fields []string) error {
		switch fields[0] {
		case "list":
			printView(session)
		case "create":
			name := promptLine(stdin, "Campaign name: ")
			goal := promptLine(stdin, "Goal (ETH): ")
			days, err := strconv.Atoi(promptLine(stdin, "Duration (days): "))
			if err != nil {
				fmt.Println("duration: must be a whole number of days")
				return nil
			}
			if err := session.CreateCampaign(ctx, name, goal, days); err != nil {
				return reportWorkflowError(err)
			}
			fmt.Println("Campaign created.")
			printView(session)
		case "withdraw":
			id, ok := parseID(fields)
			if !ok {
				fmt.Println("usage: withdraw <id>")
				return nil
			}
			if err := session.WithdrawFunds(ctx, id); err != nil {
				if errors.Is(err, funding.ErrNotConfirmed) {
					fmt.Println("Withdrawal cancelled.")
					return nil
				}
				return reportWorkflowError(err)
			}
			fmt.Println("Withdrawal successful.")
			printView(session)
		case "reload":
			if err := session.Reload(ctx); err != nil {
				return reportWorkflowError(err)
			}
			printView(session)
		default:
			fmt.Println("commands: list | create | withdraw <id> | reload | quit")
		}
		return nil
	})
}

func runDonor(ctx context.Context, session *funding.Session, stdin *bufio.Scanner) error {
	if err := session.OpenPanel(ctx, funding.PanelDonor); err != nil {
		return err
	}

	if !session.View().Role.RegisteredDonor {
		fmt.Println("You are not registered. Use `register` to enable donations.")
	}
	printView(session)
	fmt.Println("commands: list | register | donate <id> <amount> | reload | quit")

	return commandLoop(ctx, stdin, func(fields []string) error {
		switch fields[0] {
		case "list":
			printView(session)
		case "register":
			if session.View().Role.RegisteredDonor {
				fmt.Println("Already registered.")
				return nil
			}
			if err := session.Register(ctx); err != nil {
				return reportWorkflowError(err)
			}
			fmt.Println("Registration successful.")
		case "donate":
			if !session.View().Role.RegisteredDonor {
				fmt.Println("Register first.")
				return nil
			}
			if len(fields) < 3 {
				fmt.Println("usage: donate <id> <amount>   (amounts in ETH, e.g. 0.005 to 1)")
				return nil
			}
			id, ok := parseID(fields)
			if !ok {
				fmt.Println("usage: donate <id> <amount>")
				return nil
			}
			if err := session.Donate(ctx, id, fields[2]); err != nil {
				return reportWorkflowError(err)
			}
			fmt.Println("Donation successful.")
			printView(session)
		case "reload":
			if err := session.Reload(ctx); err != nil {
				return reportWorkflowError(err)
			}
			printView(session)
		default:
			fmt.Println("commands: list | register | donate <id> <amount> | reload | quit")
		}
		return nil
	})
}

// commandLoop reads commands until quit, EOF or context cancellation.
func commandLoop(ctx context.Context, stdin *bufio.Scanner, handle func(fields []string) error) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Print("> ")
		if !stdin.Scan() {
			return nil
		}
		fields := strings.Fields(stdin.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := handle(fields); err != nil {
			return err
		}
	}
}

// reportWorkflowError keeps the panel alive on user-correctable failures
// and propagates everything else.
func reportWorkflowError(err error) error {
	var validation *funding.ValidationError
	if errors.As(err, &validation) {
		fmt.Printf("Invalid input - %s\n", validation)
		return nil
	}
	var boundary *funding.BoundaryError
	if errors.As(err, &boundary) {
		// surfaced verbatim, never retried
		fmt.Printf("Transaction failed: %s\n", boundary)
		return nil
	}
	return err
}

func promptLine(stdin *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !stdin.Scan() {
		return ""
	}
	return strings.TrimSpace(stdin.Text())
}

func parseID(fields []string) (uint64, bool) {
	if len(fields) < 2 {
		return 0, false
	}
	id, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func printView(session *funding.Session) {
	v := session.View()
	if !v.Connected {
		fmt.Println("Disconnected.")
		return
	}
	fmt.Printf("Account %s", ethunit.ShortAddress(v.Account))
	if v.Role.Admin {
		fmt.Print(" (administrator)")
	}
	fmt.Printf(" - %d campaign(s)", len(v.Campaigns))
	if skipped := session.Skipped(); skipped > 0 {
		fmt.Printf(", %d record(s) skipped as malformed", skipped)
	}
	fmt.Println()

	now := time.Now()
	for _, c := range v.Campaigns {
		goal, _ := ethunit.DisplayAmountOr(c.Goal, "0.0")
		collected, _ := ethunit.DisplayAmountOr(c.Collected, "0.0")
		status := ""
		if c.Expired(now) {
			status = " [ended]"
		} else if !c.HasFunds() {
			status = " [no funds]"
		}
		fmt.Printf("  #%d %s%s\n", c.ID, c.Name, status)
		fmt.Printf("      goal %s ETH, collected %s ETH (%.2f%%), deadline %s\n",
			goal, collected, c.DisplayProgress(), c.Deadline.Local().Format("02.01.2006 15:04"))
	}
}

// setupEventLogging configures session event handlers using slog directly
func setupEventLogging(ctx context.Context, events <-chan funding.Event, log *slog.Logger) func() {
	return funding.NewSubscriber(events,
		funding.OnConnected(func(event funding.Connected) {
			log.InfoContext(ctx, "Wallet session established",
				slog.String("account", event.Account.Hex()),
				slog.Bool("admin", event.Admin),
			)
		}),
		funding.OnDisconnected(func(event funding.SessionDisconnected) {
			log.InfoContext(ctx, "Wallet session ended")
		}),
		funding.OnViewReloaded(func(event funding.ViewReloaded) {
			log.InfoContext(ctx, "View reloaded",
				slog.Int("campaigns", event.Campaigns),
				slog.Int("skipped", event.Skipped),
			)
		}),
		funding.OnReloadFailed(func(event funding.ReloadFailed) {
			log.ErrorContext(ctx, "View reload failed", slog.Any("error", event.Err))
		}),
		funding.OnWorkflowCompleted(func(event funding.WorkflowCompleted) {
			log.InfoContext(ctx, "Workflow confirmed",
				slog.String("workflow", event.Name),
				slog.String("tx", event.TxHash.Hex()),
			)
		}),
		funding.OnWorkflowFailed(func(event funding.WorkflowFailed) {
			log.ErrorContext(ctx, "Workflow failed",
				slog.String("workflow", event.Name),
				slog.Any("error", event.Err),
			)
		}),
		funding.OnWatchStopped(func(event funding.WatchStopped) {
			log.InfoContext(ctx, "Account watcher stopped",
				slog.String("reason", event.Reason.Error()),
			)
		}),
	)
}
