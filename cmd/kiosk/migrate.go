package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-kiosk/internal/log"
	"github.com/teslashibe/go-kiosk/pkg/catalog"
	"github.com/teslashibe/go-kiosk/pkg/kioskclient"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and seed the menu",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context(), cfg, log.Component("kiosk.migrate"))
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Println("✅ Database ready:", cfg.Database.Driver)
		return nil
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu [keyword]",
	Short: "List the menu, or search it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var src catalog.Catalog
		if remote {
			src = kioskclient.New(cfg.Client.BaseURL)
		} else {
			db, err := openStore(ctx, cfg, log.Component("kiosk.menu"))
			if err != nil {
				return err
			}
			defer db.Close()
			src = db
		}

		var items []catalog.MenuItem
		if len(args) == 1 {
			items, err = src.Search(ctx, args[0])
		} else {
			items, err = src.Menu(ctx)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", it.ID, it.Name, it.Category, it.Price)
		}
		return w.Flush()
	},
}

func init() {
	menuCmd.Flags().BoolVar(&remote, "remote", false, "read the menu from a running server")
}
