package cmd

import (
	"fmt"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// runner wraps a devtool task into a cobra command.
func runner(use, short string, task func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := task(); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}

func TestCmd() *cobra.Command {
	return runner("test", "Run unit tests (no hardware needed)", test.Test)
}

func LintCmd() *cobra.Command {
	return runner("lint", "Run linting", test.Lint)
}

// IntegrationTestCmd runs the tests that talk to a compass attached over an MCP2221 bridge.
func IntegrationTestCmd() *cobra.Command {
	return runner("integration-test", "Run hardware integration tests", test.Integ)
}
