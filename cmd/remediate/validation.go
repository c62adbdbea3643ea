package remediate

import (
	"fmt"
	"os"
)

// validateRemediateArgs validates the arguments provided to the remediate command.
func validateRemediateArgs(opts *RunOptionsRemediate, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one target path must be specified")
	}
	if opts.Threads <= 0 {
		return fmt.Errorf("the 'threads' flag must be a positive integer")
	}

	for _, target := range args {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return fmt.Errorf("the target path does not exist: %v", target)
		}
	}

	if opts.Since != "" {
		if len(args) != 1 {
			return fmt.Errorf("the 'since' flag requires exactly one repository path")
		}
		if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
			return fmt.Errorf("the 'since' flag requires a folder, got file %v", args[0])
		}
	}

	if opts.StrategiesDir != "" {
		info, err := os.Stat(opts.StrategiesDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("the strategies folder does not exist: %v", opts.StrategiesDir)
		}
	}
	return nil
}
