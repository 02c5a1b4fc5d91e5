package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jwulff/voxchat/internal/api"
	"github.com/jwulff/voxchat/internal/app"
	"github.com/jwulff/voxchat/internal/audio"
	"github.com/jwulff/voxchat/internal/config"
	"github.com/jwulff/voxchat/internal/store"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

type rootFlags struct {
	configPath string
	configURL  string

	sttURL       string
	chatURL      string
	ttsURL       string
	voiceAuthURL string
	sessionID    string

	device    string
	noHistory bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "voxchat",
		Short:        "Voice-authenticated assistant TUI",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	pf.StringVar(&flags.configURL, "config-url", "", "URL of a JSON config document")
	pf.StringVar(&flags.sttURL, "stt-url", "", "speech-to-text base URL")
	pf.StringVar(&flags.chatURL, "chat-url", "", "chat base URL")
	pf.StringVar(&flags.ttsURL, "tts-url", "", "text-to-speech base URL")
	pf.StringVar(&flags.voiceAuthURL, "voice-auth-url", "", "voice-auth base URL")
	pf.StringVar(&flags.sessionID, "session", "", "session id (default: random)")
	root.Flags().StringVar(&flags.device, "device", "", "capture device override")
	root.Flags().BoolVar(&flags.noHistory, "no-history", false, "disable transcript persistence")

	root.AddCommand(newDeleteUserCmd(flags))
	root.AddCommand(newHistoryCmd())

	return root
}

// resolveConfig applies source precedence: flags, env, YAML file, then the
// remote document when one is configured.
func resolveConfig(ctx context.Context, flags *rootFlags) (config.Config, error) {
	cfg := config.Config{
		SpeechToTextURL: flags.sttURL,
		ChatURL:         flags.chatURL,
		TextToSpeechURL: flags.ttsURL,
		VoiceAuthURL:    flags.voiceAuthURL,
		SessionID:       flags.sessionID,
	}
	cfg.Merge(config.FromEnv())

	path := flags.configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}
	fileCfg, err := config.LoadFile(path, explicit)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Merge(fileCfg)

	if flags.configURL != "" {
		remote, err := config.Fetch(ctx, flags.configURL)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Merge(remote)
	}

	if err := cfg.Finalize(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runTUI(ctx context.Context, flags *rootFlags) error {
	cfg, err := resolveConfig(ctx, flags)
	if err != nil {
		return err
	}

	client := api.New(api.Endpoints{
		SpeechToText: cfg.SpeechToTextURL,
		VoiceAuth:    cfg.VoiceAuthURL,
		Chat:         cfg.ChatURL,
		TextToSpeech: cfg.TextToSpeechURL,
	})

	var history *store.Store
	if !flags.noHistory {
		history, err = store.Open(store.DefaultDBPath())
		if err != nil {
			// History is best-effort; the session works without it.
			fmt.Fprintf(os.Stderr, "history disabled: %v\n", err)
			history = nil
		} else {
			defer history.Close()
		}
	}

	model := app.New(app.Options{
		Service:   client,
		Client:    client,
		Recorder:  audio.NewRecorder(&audio.FFmpegBackend{Device: flags.device}),
		Player:    audio.FFplayPlayer{},
		History:   history,
		SessionID: cfg.SessionID,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func newDeleteUserCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <username>",
		Short: "Remove an enrolled voice from the auth service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd.Context(), flags)
			if err != nil {
				return err
			}
			client := api.New(api.Endpoints{VoiceAuth: cfg.VoiceAuthURL,
				SpeechToText: cfg.SpeechToTextURL, Chat: cfg.ChatURL, TextToSpeech: cfg.TextToSpeechURL})
			if err := client.DeleteUser(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			fmt.Printf("Deleted voice for %s\n", args[0])
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [session-id]",
		Short: "List past sessions, or print one session's transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(store.DefaultDBPath())
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 0 {
				ids, err := st.Sessions()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			}

			msgs, err := st.MessagesForSession(args[0])
			if err != nil {
				return err
			}
			for _, m := range msgs {
				fmt.Printf("%s  %-9s  %s\n", m.CreatedAt.Format("2006-01-02 15:04:05"), m.Role, m.Content)
			}
			return nil
		},
	}
}
