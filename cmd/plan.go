package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridloom/bessarb/config"
	"github.com/gridloom/bessarb/core/optimizer"
	"github.com/gridloom/bessarb/infra/prices"
)

var planSoCPercent float64

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a plan once and print it as JSON",
	RunE:  planOnce,
}

func init() {
	planCmd.Flags().Float64Var(&planSoCPercent, "soc", 0, "current state of charge in percent")
	rootCmd.AddCommand(planCmd)
}

func planOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	src, err := prices.NewHTTPSource(cfg.Prices.URL, time.Duration(cfg.Prices.TimeoutSeconds)*time.Second)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	series, err := src.Prices(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}

	battery := cfg.Battery.Model()
	opt, err := optimizer.New(battery)
	if err != nil {
		return err
	}
	soc := planSoCPercent / 100 * battery.CapacityKWh
	plan := opt.Optimize(series, soc, time.Now())
	plan.ComputedAt = time.Now()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return err
	}
	if !plan.Success {
		return fmt.Errorf("optimization failed: %s", plan.Error)
	}
	return nil
}
