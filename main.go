package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"node.town/asrstream/config"
	"node.town/asrstream/snd"
	"node.town/asrstream/speechpb"
	"node.town/asrstream/stt"
	"node.town/asrstream/txt"
)

var (
	cfgFile string
	logger  *log.Logger
)

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.String("host", config.DefaultHost, "gRPC server address")
	flags.Int("sample_rate", config.DefaultSampleRate, "Wav sample rate in Hz")
	flags.
		String("context", "", "Context words to improve recognition accuracy, eg. 专有名词,大城小爱")
	flags.Bool("disable_itn", false, "Disable ITN")
	flags.Bool("disable_endpoint_detection", false, "Disable endpoint detection")
	flags.Bool("continuous_decoding", false, "Specify continuous decoding mode")
	flags.
		Duration("connect-timeout", config.DefaultConnectTimeout, "How long to wait for the server to become ready")
	flags.Bool("summary", false, "Print the final transcripts as a table when done")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfgFile, "config", "", "Config file (default ./config.yaml)")

	// Bind flags to viper
	viper.BindPFlag(config.KeyHost, flags.Lookup("host"))
	viper.BindPFlag(config.KeySampleRate, flags.Lookup("sample_rate"))
	viper.BindPFlag(config.KeyContext, flags.Lookup("context"))
	viper.BindPFlag(config.KeyDisableITN, flags.Lookup("disable_itn"))
	viper.BindPFlag(
		config.KeyDisableEndpointDetection,
		flags.Lookup("disable_endpoint_detection"),
	)
	viper.BindPFlag(
		config.KeyContinuousDecoding,
		flags.Lookup("continuous_decoding"),
	)
	viper.BindPFlag(config.KeyConnectTimeout, flags.Lookup("connect-timeout"))
	viper.BindPFlag(config.KeySummary, flags.Lookup("summary"))
	viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
}

func initConfig() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05.000",
	})

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	config.SetDefaults(viper.GetViper())

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case cfgFile != "":
			logger.Fatal("read config file", "file", cfgFile, "error", err)
		case !errors.As(err, &notFound):
			logger.Warn("read config file", "error", err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "asrstream <wav_file>",
	Short: "Stream a wav file to an ASR gRPC server",
	Long: `Get recognition results from an ASR gRPC server by streaming a wav file
in real time, 40ms of audio at a time, and log partial and final transcripts.`,
	Args: cobra.ExactArgs(1),
	Run:  runRecognize,
}

func runRecognize(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Fatal("load config", "error", err)
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal("parse log level", "level", cfg.LogLevel, "error", err)
	}
	mainLogger, speechLogger := createLoggers(level)

	audio, err := snd.ReadFile(args[0])
	if err != nil {
		mainLogger.Fatal("read audio", "error", err)
	}
	mainLogger.Info("run", "file", audio.Path, "bytes", len(audio.Data))

	switch {
	case audio.HeaderErr != nil:
		mainLogger.Warn("wav header, sending raw bytes", "error", audio.HeaderErr)
	case audio.Header != nil:
		for _, problem := range audio.Header.Mismatches(cfg.SampleRate) {
			mainLogger.Warn("wav header", "problem", problem)
		}
		mainLogger.Debug("wav header", "seconds", audio.Header.Duration())
	default:
		mainLogger.Debug("no wav header, sending raw bytes")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	conn, err := stt.Dial(ctx, cfg.Host, cfg.ConnectTimeout)
	if err != nil {
		if errors.Is(err, stt.ErrConnectionTimeout) {
			mainLogger.Fatal("Error connecting to server", "host", cfg.Host, "error", err)
		}
		mainLogger.Fatal("connect", "host", cfg.Host, "error", err)
	}
	defer conn.Close()

	pacer, err := stt.NewPacer(
		cfg.StreamingConfig(),
		audio.Data,
		cfg.SampleRate,
		stt.DefaultInterval,
		speechLogger,
	)
	if err != nil {
		mainLogger.Fatal("prepare audio", "error", err)
	}

	session := stt.NewSession(
		speechpb.NewSpeechClient(conn),
		pacer,
		speechLogger,
	)

	err = session.Run(ctx)
	switch {
	case err != nil && ctx.Err() != nil:
		mainLogger.Warn("interrupted")
	case err != nil:
		mainLogger.Fatal("recognize", "error", err)
	}

	if rerr := session.Err(); rerr != nil {
		mainLogger.Warn("session ended by the server", "code", rerr.Code)
	}

	if cfg.Summary {
		txt.WriteSummary(os.Stdout, "Transcript", session.Results())
	}
}

func createLoggers(level log.Level) (mainLogger, speechLogger *log.Logger) {
	logger.SetLevel(level)
	if level == log.DebugLevel {
		logger.SetReportCaller(true)
		logger.SetCallerFormatter(
			func(file string, line int, funcName string) string {
				path, err := filepath.Rel(".", file)
				if err != nil {
					path = file
				}
				return fmt.Sprintf("%s:%d", path, line)
			},
		)
	}

	styles := log.DefaultStyles()
	styles.Prefix = styles.Prefix.
		Bold(false).Transform(func(s string) string {
		return strings.TrimSuffix(s, ":")
	})
	styles.Levels[log.InfoLevel] = styles.Levels[log.InfoLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Levels[log.ErrorLevel] = styles.Levels[log.ErrorLevel].
		MaxWidth(6).
		MarginRight(1).
		Bold(false)
	styles.Message = styles.Message.Bold(true).Width(20)
	styles.Key = styles.Key.MarginLeft(1).
		Bold(false).
		Foreground(lipgloss.Color("#ff8800"))
	styles.Values["transcript"] = lipgloss.NewStyle().Bold(true)

	logger.SetStyles(styles)

	mainLogger = logger.With().WithPrefix("main")
	speechLogger = logger.With().WithPrefix("hear")

	return
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
