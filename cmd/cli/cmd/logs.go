package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Runner kinds served by /fields/{id}/logs.
const (
	kindPipeline = "pipeline"
	kindUpload   = "upload"
)

var (
	follow  bool
	logKind string
)

var logsCmd = &cobra.Command{
	Use:   "logs [field_id]",
	Short: "Print the captured output of a pipeline run or upload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fieldID := args[0]
		if logKind != kindPipeline && logKind != kindUpload {
			return fmt.Errorf("invalid --kind %q: must be pipeline or upload", logKind)
		}

		// Trap Ctrl+C to exit gracefully
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		client := NewMonitorClient(viper.GetString("url"))
		printed := 0
		pending := ""
		flush := func() {
			if pending != "" {
				cmd.Println(pending)
				pending = ""
			}
		}

		for {
			content, err := client.GetFieldLogs(fieldID, logKind)
			if err != nil {
				cmd.Printf("Error fetching logs: %v\n", err)
				if !follow {
					return err
				}
			} else if len(content) > printed {
				// Log files only grow while the run is going.
				var complete string
				complete, pending = splitCompleteLines(pending + content[printed:])
				cmd.Print(complete)
				printed = len(content)
			}

			if !follow {
				flush()
				return nil
			}

			select {
			case <-sigChan:
				flush()
				return nil
			case <-time.After(2 * time.Second):
			}
		}
	},
}

// splitCompleteLines cuts buf after its last newline. The tail is a line
// still being written and is held back until the rest of it arrives.
func splitCompleteLines(buf string) (complete, rest string) {
	i := strings.LastIndexByte(buf, '\n')
	return buf[:i+1], buf[i+1:]
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new output")
	logsCmd.Flags().StringVarP(&logKind, "kind", "k", kindPipeline, "Which runner's output to show (pipeline or upload)")
}
