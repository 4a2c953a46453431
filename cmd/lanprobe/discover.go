package main

import (
	"fmt"
	"io"
	"iter"
	"math"
	"net"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/lanprobe/internal/discovery"
	"github.com/muurk/lanprobe/internal/inventory"
	"github.com/muurk/lanprobe/internal/logging"
	"github.com/muurk/lanprobe/internal/tui"
)

// Discovery command flags
var (
	verbose         bool
	port            uint16
	timeoutSeconds  uint64
	target          string
	listenAddr      string
	outputFormat    string
	interactive     bool
	logLevel        string
	metricsTextfile string
	strictDeadline  bool
	maxReadErrors   int
)

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print the effective configuration before probing")
	flags.Uint16VarP(&port, "port", "p", discovery.DefaultPort, "UDP port the probe is sent to")
	flags.Uint64VarP(&timeoutSeconds, "timeout", "t", 1, "Seconds to wait for each reply")
	flags.StringVar(&target, "target", net.IPv4bcast.String(), "Broadcast address to probe")
	flags.StringVar(&listenAddr, "listen", discovery.DefaultListenAddr, "Local address to bind the probe socket to")
	flags.StringVar(&outputFormat, "format", inventory.FormatTable, "Output format ("+strings.Join(inventory.Formats, ", ")+")")
	flags.BoolVar(&interactive, "tui", false, "Show a live, interactive device table")
	flags.StringVar(&logLevel, "log-level", "", "Log to stderr at this level (debug, info, warn, error)")
	flags.StringVar(&metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file when done")
	flags.BoolVar(&strictDeadline, "strict-deadline", false, "Bound the whole session by --timeout instead of each receive")
	flags.IntVar(&maxReadErrors, "max-read-errors", discovery.DefaultMaxReadErrors, "Consecutive receive errors before giving up")
}

// buildConfig turns the flags into a session configuration
func buildConfig() (discovery.Config, error) {
	cfg := discovery.DefaultConfig()
	cfg.Port = int(port)

	if timeoutSeconds > uint64(math.MaxInt64/int64(time.Second)) {
		return cfg, fmt.Errorf("timeout %ds is too large", timeoutSeconds)
	}
	cfg.Timeout = time.Duration(timeoutSeconds) * time.Second

	ip := net.ParseIP(target)
	if ip == nil || ip.To4() == nil {
		return cfg, fmt.Errorf("invalid target %q: must be an IPv4 address", target)
	}
	cfg.Target = ip.To4()
	cfg.ListenAddr = listenAddr

	if strictDeadline {
		cfg.Deadline = discovery.DeadlineGlobal
	}
	if maxReadErrors < 1 {
		return cfg, fmt.Errorf("invalid --max-read-errors %d: must be at least 1", maxReadErrors)
	}
	cfg.MaxReadErrors = maxReadErrors

	return cfg, cfg.Validate()
}

func printVerbose(w io.Writer) {
	fmt.Fprintf(w, "Verbose %v\n", verbose)
	fmt.Fprintf(w, "Port %d\n", port)
	fmt.Fprintf(w, "Timeout %dsec\n", timeoutSeconds)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Logger = logging.GetLogger()

	var registry *prometheus.Registry
	if metricsTextfile != "" {
		registry = prometheus.NewRegistry()
		cfg.Metrics = discovery.NewMetrics(registry)
	}

	out := cmd.OutOrStdout()
	if verbose {
		printVerbose(out)
	}

	if interactive {
		err = tui.Run(cmd.Context(), cfg)
	} else {
		err = discover(cmd, cfg, out)
	}

	if registry != nil {
		if werr := prometheus.WriteToTextfile(metricsTextfile, registry); werr != nil {
			logging.Warn("Failed to write metrics", zap.String("path", metricsTextfile), zap.Error(werr))
			if err == nil {
				err = fmt.Errorf("failed to write metrics: %w", werr)
			}
		}
	}

	return err
}

// discover runs one session and streams the results to out. Nothing is
// written until the probe has been sent.
func discover(cmd *cobra.Command, cfg discovery.Config, out io.Writer) error {
	writer, err := inventory.New(outputFormat, out)
	if err != nil {
		return err
	}

	s, err := discovery.Open(cmd.Context(), cfg)
	if err != nil {
		logging.Error("Discovery setup failed", zap.Error(err))
		return err
	}
	defer s.Close()

	count, err := drain(writer, s.Responses(), s.Err)
	if err != nil {
		logging.Error("Discovery failed", zap.Error(err))
		return err
	}

	logging.Info("Discovery complete", zap.Int("devices", count))
	return nil
}

// drain writes the header and every response, then flushes. Rows already
// written are flushed even when the session stopped with an error.
func drain(writer inventory.Writer, responses iter.Seq[discovery.Response], result func() error) (int, error) {
	if err := writer.Header(); err != nil {
		return 0, err
	}

	count := 0
	for resp := range responses {
		if err := writer.Write(resp); err != nil {
			return count, err
		}
		count++
	}

	if err := writer.Flush(); err != nil {
		return count, err
	}
	return count, result()
}
