package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// Known settings and their defaults.
var settingDefaults = map[string]string{
	"theme": "light",
}

// SettingsCmd creates the settings command group
func SettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write application settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := openServices()
			if err != nil {
				return err
			}
			defer sc.Close()

			v, err := sc.DB.GetSetting(cmd.Context(), args[0], settingDefaults[args[0]])
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "theme" && args[1] != "light" && args[1] != "dark" {
				return fmt.Errorf("theme must be light or dark")
			}
			sc, err := openServices()
			if err != nil {
				return err
			}
			defer sc.Close()
			return sc.DB.SetSetting(cmd.Context(), args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every stored setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := openServices()
			if err != nil {
				return err
			}
			defer sc.Close()

			all, err := sc.DB.ListSettings(cmd.Context())
			if err != nil {
				return err
			}
			for k, v := range settingDefaults {
				if _, ok := all[k]; !ok {
					all[k] = v
				}
			}
			if jsonOut {
				return printJSON(all)
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s=%s\n", k, all[k])
			}
			return nil
		},
	})

	return cmd
}
