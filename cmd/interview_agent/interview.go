package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/interview-assistant/internal/config"
	"github.com/jonathan/interview-assistant/internal/llm"
	"github.com/jonathan/interview-assistant/internal/observability"
	"github.com/jonathan/interview-assistant/internal/resume"
	"github.com/jonathan/interview-assistant/internal/session"
	"github.com/jonathan/interview-assistant/internal/store"
	"github.com/jonathan/interview-assistant/internal/types"
)

var interviewCommand = &cobra.Command{
	Use:   "interview",
	Short: "Run a timed interview session in the terminal",
	Long: `Runs a complete interview: resume extraction -> identity collection -> six timed questions with per-answer evaluation -> final scoring.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runInterviewCmd,
}

var (
	ivConfigPath  string
	ivResume      string
	ivPosition    string
	ivName        string
	ivEmail       string
	ivPhone       string
	ivAPIKey      string
	ivVerbose     bool
	ivDatabaseURL string
	ivSQLitePath  string
	ivPrecision   string
	ivRecover     string
	ivDiscard     bool
)

func init() {
	// Config file flag (processed first)
	interviewCommand.Flags().StringVar(&ivConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	interviewCommand.Flags().StringVarP(&ivResume, "resume", "r", "", "Path to a resume file (text or HTML) to extract the candidate profile from")
	interviewCommand.Flags().StringVarP(&ivPosition, "position", "p", "", "Position the candidate is interviewing for")
	interviewCommand.Flags().StringVarP(&ivName, "name", "n", "", "Candidate name")
	interviewCommand.Flags().StringVar(&ivEmail, "email", "", "Candidate email")
	interviewCommand.Flags().StringVar(&ivPhone, "phone", "", "Candidate phone")
	interviewCommand.Flags().BoolVarP(&ivVerbose, "verbose", "v", false, "Print detailed debug information")
	interviewCommand.Flags().StringVar(&ivPrecision, "timer-precision", "", "Countdown commit interval (e.g. 100ms)")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	interviewCommand.Flags().StringVar(&ivAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	interviewCommand.Flags().StringVar(&ivDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	interviewCommand.Flags().StringVar(&ivSQLitePath, "sqlite", "", "Path to an embedded SQLite store")

	// Recovery of interrupted sessions
	interviewCommand.Flags().StringVar(&ivRecover, "recover", "", "Candidate ID of an interrupted session to resume")
	interviewCommand.Flags().BoolVar(&ivDiscard, "discard-recovery", false, "With --recover, discard the interrupted session instead of resuming it")

	rootCmd.AddCommand(interviewCommand)
}

func runInterviewCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if ivConfigPath != "" {
		loadedCfg, err := config.LoadConfig(ivConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if ivVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", ivConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if cmd.Flags().Changed("resume") {
		cfg.Resume = ivResume
	}
	if cmd.Flags().Changed("position") {
		cfg.Position = ivPosition
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = ivAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = ivDatabaseURL
	}
	if cmd.Flags().Changed("sqlite") {
		cfg.SQLitePath = ivSQLitePath
	}
	if cmd.Flags().Changed("timer-precision") {
		cfg.TimerPrecision = ivPrecision
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = ivVerbose
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		TimerPrecision: "100ms",
		RetryAttempts:  3,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 4: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	st, err := openStore(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	retry := llm.RetryPolicy{Attempts: cfg.RetryAttempts, Delay: time.Second}
	printer := observability.NewPrinter(os.Stdout)

	var timedOut atomic.Bool
	machine, err := session.New(session.Config{
		Store:     st,
		Generator: llm.NewGenerator(client).WithRetry(retry),
		Evaluator: llm.NewEvaluator(client).WithRetry(retry),
		Precision: cfg.Precision(),
		OnTimeout: func(_ *types.Question) {
			timedOut.Store(true)
			fmt.Println("\n⏰ Time is up. Press Enter to submit your draft, or keep typing to finish it.")
		},
	})
	if err != nil {
		return err
	}
	defer machine.Close()

	reader := bufio.NewReader(os.Stdin)

	// Recovery path: resume or discard an interrupted session.
	if ivRecover != "" {
		discarded, err := recoverSession(ctx, machine, st, printer)
		if err != nil {
			return err
		}
		if discarded {
			return nil
		}
	} else {
		if err := collectIdentity(ctx, machine, cfg, reader, printer, client, retry); err != nil {
			return err
		}
		if _, err := machine.Start(ctx); err != nil {
			return fmt.Errorf("failed to start interview: %w", err)
		}
	}

	// Question loop
	for {
		question := machine.CurrentQuestion()
		if question == nil {
			break
		}
		number := machine.Interview().CurrentIdx + 1
		printer.PrintQuestion(number, question)

		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read answer: %w", err)
		}
		text = strings.TrimRight(text, "\r\n")

		var answer *types.Answer
		var done bool
		if timedOut.Swap(false) {
			answer, done, err = machine.HandleTimeout(ctx, text, session.TimeoutSubmit)
		} else {
			answer, done, err = machine.SubmitAnswer(ctx, text)
		}
		if err != nil {
			return fmt.Errorf("failed to submit answer: %w", err)
		}
		printer.PrintAnswerResult(answer)
		if done {
			break
		}
	}

	interview, err := machine.Complete(ctx)
	if err != nil {
		return fmt.Errorf("failed to complete interview: %w", err)
	}

	candidate, err := st.GetCandidate(ctx, interview.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to load candidate: %w", err)
	}
	printer.PrintInterviewResult(candidate, interview)
	return nil
}

// collectIdentity seeds identity from the resume file (when given) and prompts
// for whatever required fields are still missing.
func collectIdentity(ctx context.Context, machine *session.Machine, cfg config.Config, reader *bufio.Reader, printer *observability.Printer, client llm.Client, retry llm.RetryPolicy) error {
	seed := types.CandidateInfo{
		Name:     ivName,
		Email:    ivEmail,
		Phone:    ivPhone,
		Position: cfg.Position,
	}

	missing := machine.SupplyInfo(seed)
	if cfg.Resume != "" {
		raw, err := os.ReadFile(cfg.Resume)
		if err != nil {
			return fmt.Errorf("failed to read resume file: %w", err)
		}
		extractor := resume.NewExtractor(client).WithRetry(retry)
		data, err := extractor.Extract(ctx, string(raw))
		if err != nil {
			return fmt.Errorf("failed to extract resume: %w", err)
		}
		missing = machine.ApplyResume(data, string(raw))
		// Explicit flags win over extracted values.
		missing = machine.SupplyInfo(seed)
	}

	for _, field := range missing {
		fmt.Printf("Enter %s: ", field)
		value, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", field, err)
		}
		var info types.CandidateInfo
		switch field {
		case "name":
			info.Name = strings.TrimSpace(value)
		case "email":
			info.Email = strings.TrimSpace(value)
		case "phone":
			info.Phone = strings.TrimSpace(value)
		}
		machine.SupplyInfo(info)
	}

	current := machine.Info()
	if remaining := current.MissingFields(); len(remaining) > 0 {
		return fmt.Errorf("identity still incomplete: missing %s", strings.Join(remaining, ", "))
	}

	if cfg.Verbose {
		info := machine.Info()
		printer.PrintCandidateInfo(&info)
	}
	return nil
}

// recoverSession resumes or discards the interrupted session identified by
// --recover. The returned bool is true when the session was discarded.
func recoverSession(ctx context.Context, machine *session.Machine, st store.Store, printer *observability.Printer) (bool, error) {
	candidateID, err := uuid.Parse(ivRecover)
	if err != nil {
		return false, fmt.Errorf("invalid --recover candidate ID: %w", err)
	}

	snap, err := session.CheckRecovery(ctx, st, candidateID)
	if err != nil {
		return false, err
	}
	if snap == nil {
		return false, fmt.Errorf("no interrupted session found for candidate %s", candidateID)
	}

	if ivDiscard {
		if err := session.DiscardRecovery(ctx, st, candidateID); err != nil {
			return false, err
		}
		fmt.Println("Interrupted session discarded.")
		return true, nil
	}

	if err := machine.ResumeRecovered(ctx, snap); err != nil {
		return false, err
	}
	info := machine.Info()
	printer.PrintCandidateInfo(&info)
	fmt.Printf("Resuming interview started at %s.\n\n", snap.StartedAt.Format(time.RFC1123))
	return false, nil
}
