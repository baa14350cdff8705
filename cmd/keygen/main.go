// Terminal create-wallet flow: shows a new recovery phrase once, checks it
// was written down, optionally writes an encrypted .cwt backup and attaches
// the public key to the platform account.
// Usage: go run ./cmd/keygen [-backup wallet.cwt] [-attach] [-config config.yaml]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AlexZinkM/self-custody/internal/client"
	"github.com/AlexZinkM/self-custody/internal/config"
	"github.com/AlexZinkM/self-custody/internal/confirm"
	"github.com/AlexZinkM/self-custody/internal/crypto"
	"github.com/AlexZinkM/self-custody/internal/custody"
	"github.com/AlexZinkM/self-custody/internal/logx"
	"github.com/AlexZinkM/self-custody/internal/vault"

	"go.uber.org/zap"
)

const maxAttempts = 3

type runner struct {
	in       *bufio.Reader
	creation *custody.Creation
	log      *zap.Logger
}

func main() {
	configPath := flag.String("config", "", "optional yaml config file")
	backupPath := flag.String("backup", "", "write an encrypted .cwt backup of the phrase to this path")
	attach := flag.Bool("attach", false, "register the public key with the platform backend")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	cfg := config.Get()
	if err := logx.Init(logx.Config{Level: cfg.LogLevel, FilePath: cfg.LogFile}); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	var backend custody.Backend
	if *attach {
		bc, err := client.NewBackendClient(client.Options{
			BaseURL:    cfg.BackendURL,
			Token:      cfg.BackendToken,
			RevealPath: cfg.RevealPath,
			AttachPath: cfg.AttachPath,
			Timeout:    cfg.RequestTimeout,
			Logger:     logx.Named("backend"),
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "backend:", err)
			logx.Close()
			os.Exit(1)
		}
		backend = bc
	}

	r := &runner{
		in: bufio.NewReader(os.Stdin),
		creation: custody.NewCreation(backend, custody.Options{
			Timeout:       cfg.RequestTimeout,
			SecretTTL:     cfg.SecretTTL,
			ChallengeSize: cfg.ChallengeSize,
			Logger:        logx.L(),
		}),
		log: logx.Named("keygen"),
	}

	ctx := withInterrupt(context.Background(), r.creation.Close)
	err := r.run(ctx, *backupPath, *attach)
	r.creation.Close()
	logx.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (r *runner) prompt() string {
	text, _ := r.in.ReadString('\n')
	return strings.TrimSpace(text)
}

func (r *runner) yes(question string) bool {
	fmt.Printf("%s (y/n): ", question)
	yn := strings.ToLower(r.prompt())
	return yn == "y" || yn == "yes"
}

func (r *runner) run(ctx context.Context, backupPath string, attach bool) error {
	h, err := r.creation.Generate()
	if err != nil {
		return err
	}
	if err := showPhrase(h); err != nil {
		return err
	}
	fmt.Print("Write the words down in order, then press Enter to hide them...")
	r.prompt()
	clearScreen()

	if backupPath != "" {
		if err := r.backup(backupPath); err != nil {
			return err
		}
	}

	ack := confirm.Acknowledgements{
		CannotRecover: r.yes("I understand that a lost recovery phrase cannot be recovered"),
		NeverShare:    r.yes("I will never share my recovery phrase with anyone"),
		SavedSecurely: r.yes("I have saved my recovery phrase securely"),
	}
	if err := ack.Check(); err != nil {
		return err
	}

	ch, err := r.creation.Challenge()
	if err != nil {
		return err
	}
	for attempt := 1; ; attempt++ {
		answers := make(map[int]string, len(ch.Indices))
		positions := ch.Positions()
		for i, idx := range ch.Indices {
			word, err := config.ReadHidden(fmt.Sprintf("Word #%d: ", positions[i]))
			if err != nil {
				return err
			}
			answers[idx] = word
		}

		pub, err := r.creation.Confirm(ack, answers)
		clear(answers)
		if err == nil {
			fmt.Println("Wallet address:", pub.String())
			break
		}
		if !errors.Is(err, confirm.ErrConfirmationMismatch) || attempt == maxAttempts {
			return err
		}
		fmt.Println("The words do not match. Check your written copy and try again.")
	}

	if !attach {
		return nil
	}
	if err := r.creation.Attach(ctx); err != nil {
		return err
	}
	fmt.Println("Public key attached to your account.")
	return nil
}

func (r *runner) backup(path string) error {
	password, err := config.PromptForNewPassword()
	if err != nil {
		return err
	}
	defer clear(password)

	fileData, err := r.creation.Backup(password)
	if err != nil {
		return err
	}
	if err := crypto.SaveBackup(path, fileData); err != nil {
		return err
	}
	r.log.Info("backup written", zap.String("path", path))
	fmt.Println("Encrypted backup written to", path)
	return nil
}

// showPhrase prints the numbered words straight from the vault
func showPhrase(h *vault.Handle) error {
	return h.Use(func(secret []byte) error {
		fmt.Println()
		fmt.Println("Your recovery phrase:")
		for i, w := range strings.Fields(string(secret)) {
			fmt.Printf("%2d. %s\n", i+1, w)
		}
		fmt.Println()
		return nil
	})
}

func clearScreen() {
	fmt.Print("\033[H\033[2J\033[3J")
}

// withInterrupt cancels ctx on SIGINT/SIGTERM after running onSignal, so an
// interrupted run scrubs the phrase before the process exits
func withInterrupt(parent context.Context, onSignal func()) context.Context {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		onSignal()
		cancel()
		clearScreen()
		os.Exit(130)
	}()
	return ctx
}
