package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// Version is the released tool version, overridden at build time with
// -ldflags "-X github.com/me/nfclass/internal/cli.Version=...".
var Version = "0.1.0-dev"

// releaseURL serves the latest release tag; a var so tests can point it at
// a local server.
var releaseURL = "https://api.github.com/repos/mirpedrol/nf-class/releases/latest"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the nf-class version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nf-class %s\n", Version)
		},
	}
}

// warnIfOutdated compares the running version against the latest release
// and logs when an update exists. Failures stay silent at info level; the
// check is best effort and NFCLASS_NO_VERSION_CHECK disables it.
func warnIfOutdated(ctx context.Context, logger *slog.Logger) {
	if os.Getenv("NFCLASS_NO_VERSION_CHECK") != "" || strings.HasSuffix(Version, "-dev") {
		return
	}
	latest, err := latestRelease(ctx)
	if err != nil {
		logger.Debug("version check failed", "err", err)
		return
	}
	if latest != "" && latest != Version {
		logger.Warn("a newer nf-class release is available", "running", Version, "latest", latest)
	}
}

func latestRelease(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	return strings.TrimPrefix(release.TagName, "v"), nil
}
