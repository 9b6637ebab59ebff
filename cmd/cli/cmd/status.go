package cmd

import (
	"fmt"
	"sort"
	"time"

	"ddfmonitor/pkg/api"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var watchInterval time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the monitor's latest cycle report",
	Long:  `Print the field counts per status and the download and upload slots as seen in the monitor's most recent cycle.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewMonitorClient(viper.GetString("url"))

		for {
			report, err := client.GetStatus()
			if err != nil {
				cmd.Printf("Failed to get status: %v\n", err)
				if watchInterval <= 0 {
					return err
				}
			} else {
				printReport(cmd, *report)
			}

			if watchInterval <= 0 {
				return nil
			}
			select {
			case <-cmd.Context().Done():
				return nil
			case <-time.After(watchInterval):
			}
			cmd.Println()
		}
	},
}

func printReport(cmd *cobra.Command, report api.StatusReport) {
	cmd.Printf("%sDDF-pipeline status on cluster %s%s\n", colorBold, report.Cluster, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sUpdated:%s  %s\n", colorDim, colorReset, formatTimeWithRelative(report.GeneratedAt))

	if report.Error != nil {
		cmd.Printf("%sError:%s    %s%s%s\n", colorDim, colorReset, colorRed, *report.Error, colorReset)
	} else {
		statuses := make([]string, 0, len(report.Counts))
		for s := range report.Counts {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)

		cmd.Println()
		for _, s := range statuses {
			cmd.Printf("  %s%-20s%s : %d\n", statusColor(s), s, colorReset, report.Counts[s])
		}
		cmd.Printf("  %-20s : %d\n", "Total", report.Total)
	}

	cmd.Println()
	printSlot(cmd, "Download", report.Download)
	printSlot(cmd, "Upload", report.Upload)
}

func printSlot(cmd *cobra.Command, name string, slot api.SlotStatus) {
	if !slot.Busy {
		cmd.Printf("%s%-9s%s %sidle%s\n", colorDim, name+":", colorReset, colorCyan, colorReset)
		return
	}
	started := "-"
	if slot.StartedAt != nil {
		started = fmt.Sprintf("running for %s", formatDuration(time.Since(*slot.StartedAt)))
	}
	cmd.Printf("%s%-9s%s %s%s%s %s(%s)%s\n", colorDim, name+":", colorReset,
		colorYellow, slot.FieldID, colorReset, colorDim, started, colorReset)
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusColor(status string) string {
	switch status {
	case "Queued":
		return colorYellow
	case "Complete":
		return colorGreen
	case "Archived":
		return colorCyan
	case "Not started":
		return colorDim
	default:
		return ""
	}
}

func formatTimeWithRelative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s %s(%s ago)%s", t.Format("Mon, 02 Jan 2006 15:04:05 MST"), colorDim, relativeTime(t), colorReset)
}

func relativeTime(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return fmt.Sprintf("%ds", int(duration.Seconds()))
	} else if duration < time.Hour {
		return fmt.Sprintf("%dm", int(duration.Minutes()))
	} else if duration < 24*time.Hour {
		return fmt.Sprintf("%dh", int(duration.Hours()))
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	} else if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().DurationVarP(&watchInterval, "watch", "w", 0, "Refresh the report at this interval")
}
