package artifacts

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/pkg/shared"
	"github.com/scan-io-git/remedy/pkg/shared/config"
	"github.com/scan-io-git/remedy/pkg/shared/files"
)

// GetArtifactName returns the artifact name of one command run.
// Example: remediate_4b0c..._2025-09-15T08:28:46Z.remedy-artifact.
func GetArtifactName(command, runID string, t time.Time) string {
	ts := t.UTC().Format(time.RFC3339)
	return fmt.Sprintf("%s_%s_%s.remedy-artifact", command, runID, ts)
}

// SaveArtifactJSON writes the launches of a command run to
// <results>/artifacts/<name>.json and returns the full path.
func SaveArtifactJSON(cfg *config.Config, logger hclog.Logger, command, runID string, result shared.GenericLaunchesResult) (string, error) {
	dir := filepath.Join(config.GetRemedyResultsHome(cfg), "artifacts")
	path := filepath.Join(dir, GetArtifactName(command, runID, time.Now())+".json")

	resultData, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return path, fmt.Errorf("error marshaling the result data: %w", err)
	}

	if err := files.WriteFile(path, resultData); err != nil {
		return path, fmt.Errorf("error writing result to artifact file: %w", err)
	}
	logger.Info("artifact saved to file", "path", path)

	return path, nil
}
