package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/notifications"
	"github.com/YatinSharma37/Anuvadika/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var sendTest bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify configuration, directories and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0
			emit := func(label string, kind statusKind, message string) {
				if kind == statusError {
					failures++
				}
				fmt.Fprintln(out, renderStatusLine(label, kind, message, colorize))
			}
			section := func(title string) {
				for _, line := range renderSectionHeader(title, colorize) {
					fmt.Fprintln(out, line)
				}
			}

			section("Configuration")
			if ctx.configExists {
				emit("Config file", statusOK, ctx.configPath)
			} else {
				emit("Config file", statusWarn, "not found; using defaults (run `anuvadika config init`)")
			}
			emit("Model", statusInfo, fmt.Sprintf("%s via %s on %s", cfg.Inference.Model, cfg.Inference.Engine, cfg.Inference.Device))
			fmt.Fprintln(out)

			section("Directories")
			for _, dir := range []struct{ name, path string }{
				{"Staging", cfg.Paths.StagingDir},
				{"Library", cfg.Paths.LibraryDir},
				{"Logs", cfg.Paths.LogDir},
				{"State", cfg.Paths.StateDir},
			} {
				r := preflight.CheckDirectoryAccess(dir.name, dir.path)
				emit(r.Name, resultKind(r.Passed, false), r.Detail)
			}
			if cfg.Inference.HostExclusive {
				r := preflight.CheckInferenceLock(cfg.InferenceLockPath())
				emit(r.Name, resultKind(r.Passed, true), r.Detail)
			}
			fmt.Fprintln(out)

			section("Tools")
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				detail := status.Detail
				if status.Available {
					detail = status.Path
					if status.Version != "" {
						detail = fmt.Sprintf("%s (%s)", status.Path, truncate(status.Version, 48))
					}
				} else if status.Optional {
					detail = fmt.Sprintf("%s; %s", detail, strings.ToLower(status.Description))
				}
				emit(status.Name, resultKind(status.Available, status.Optional), detail)
			}
			fmt.Fprintln(out)

			section("Storage")
			if cfg.S3Enabled() {
				target := "s3://" + cfg.Storage.S3.Bucket + "/" + strings.TrimPrefix(cfg.Storage.S3.Prefix, "/")
				if cfg.Storage.S3.Endpoint != "" {
					target += " via " + cfg.Storage.S3.Endpoint
				}
				emit("S3 publishing", statusOK, target)
			} else {
				emit("S3 publishing", statusInfo, "disabled")
			}
			switch {
			case !cfg.NotificationsEnabled():
				emit("Notifications", statusInfo, "disabled")
			case sendTest:
				if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
					emit("Notifications", statusError, err.Error())
				} else {
					emit("Notifications", statusOK, "test sent to "+cfg.Notifications.NtfyTopic)
				}
			default:
				emit("Notifications", statusOK, cfg.Notifications.NtfyTopic)
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&sendTest, "notify", false, "Send a test notification to the configured ntfy topic")
	return cmd
}

func resultKind(passed, optional bool) statusKind {
	switch {
	case passed:
		return statusOK
	case optional:
		return statusWarn
	default:
		return statusError
	}
}
