package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var varsCmd = &cobra.Command{
	Use:   "vars <image>",
	Short: "List the dynamic variables declared in an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, err := loadFileSystem(args[0])
		if err != nil {
			return err
		}
		if len(fs.Variables) == 0 {
			fmt.Println("No dynamic variables")
			return nil
		}
		fmt.Println("Dynamic variables:")
		for _, variable := range fs.Variables {
			fmt.Printf("%d %s\n", variable.Number, variable.Name)
		}
		return nil
	},
}
