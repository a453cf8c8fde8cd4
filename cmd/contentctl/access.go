package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"labsite/internal/pkg/codehash"
)

func newHashCodeCmd() *cobra.Command {
	var course string
	var useBcrypt bool
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-code <code>",
		Short: "Print a COURSE_ACCESS_CODES entry for a plaintext code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(args[0]) == "" {
				return fmt.Errorf("code is empty")
			}
			stored := codehash.Hash(args[0])
			if useBcrypt {
				var err error
				stored, err = codehash.HashBcrypt(args[0], cost)
				if err != nil {
					return fmt.Errorf("bcrypt: %w", err)
				}
			}
			if course = strings.TrimSpace(course); course != "" {
				stored = course + "=" + stored
			}
			fmt.Fprintln(cmd.OutOrStdout(), stored)
			return nil
		},
	}
	cmd.Flags().StringVar(&course, "course", "", "course the code unlocks (default: COURSE_NAME)")
	cmd.Flags().BoolVar(&useBcrypt, "bcrypt", false, "emit a bcrypt hash instead of a sha256 digest")
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (default 10)")
	return cmd
}
