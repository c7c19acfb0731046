package main

import (
	"github.com/spf13/cobra"

	"github.com/despuyt/mmsync/pkg/export"
)

var (
	prepareOut string

	prepareCmd = &cobra.Command{
		Use:   "prepare <export.csv>",
		Short: "Convert a raw club-administration export into an import CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := export.TransformFile(args[0], prepareOut); err != nil {
				return err
			}
			logger.Info("wrote import csv", "path", prepareOut)
			return nil
		},
	}
)

func init() {
	prepareCmd.Flags().StringVarP(&prepareOut, "output", "o", "users.csv", "path of the import CSV to write")
}
