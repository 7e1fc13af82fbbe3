package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go-brindes-ws/internal/app"
	"go-brindes-ws/internal/assistant"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type opener func() (*app.Services, error)

func newRootCmd(open opener) *cobra.Command {
	var actorName string

	root := &cobra.Command{
		Use:           "brindesctl",
		Short:         "Operate the brindes stock and sample engines from a terminal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&actorName, "actor", defaultActor(), "name written to the movement log")

	actor := func() service.Actor {
		return service.Actor{Name: actorName, Channel: model.ChannelCLI}
	}

	root.AddCommand(
		newConsultCmd(open, actor),
		newStockCmd(open, actor),
		newSampleCmd(open, actor),
		newBotKeyCmd(),
	)
	return root
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func newConsultCmd(open opener, actor func() service.Actor) *cobra.Command {
	return &cobra.Command{
		Use:   "consult [term]",
		Short: "Show what matches term, or the low-stock and samples-out overview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := open()
			if err != nil {
				return err
			}
			term := ""
			if len(args) == 1 {
				term = args[0]
			}
			caller := assistant.Caller{Actor: actor(), Capabilities: model.RoleAdministrator.Capabilities()}
			fmt.Fprintln(cmd.OutOrStdout(), svc.Tools.Consult(cmd.Context(), term, caller))
			return nil
		},
	}
}

func newStockCmd(open opener, actor func() service.Actor) *cobra.Command {
	return &cobra.Command{
		Use:     "stock <reference> <delta>",
		Short:   "Add (positive delta) or withdraw (negative delta) units of a stock item",
		Example: "  brindesctl stock \"caneta azul\" 20\n  brindesctl stock --actor ana -- cadernos -3",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("%w: delta must be a whole number, got %q", service.ErrMalformedInput, args[1])
			}
			svc, err := open()
			if err != nil {
				return err
			}

			res, err := svc.Stock.MutateStock(cmd.Context(), args[0], delta, actor())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d -> %d\n", res.Item.Name, res.PreviousQuantity, res.NewQuantity)
			if res.Note != "" {
				fmt.Fprintf(out, "note: %s\n", res.Note)
			}
			if w := res.Warning(); w != "" {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			return nil
		},
	}
}

func newSampleCmd(open opener, actor func() service.Actor) *cobra.Command {
	var (
		destination string
		address     string
		days        int
	)
	cmd := &cobra.Command{
		Use:   "sample <reference> <checkout|return|sold|discontinued>",
		Short: "Move a sample through its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, ok := model.ParseSampleAction(args[1])
			if !ok {
				return fmt.Errorf("%w: unknown action %q", service.ErrMalformedInput, args[1])
			}
			svc, err := open()
			if err != nil {
				return err
			}

			res, err := svc.Samples.MoveSample(cmd.Context(), args[0], service.TransitionRequest{
				Action:      action,
				Destination: destination,
				Address:     address,
				Days:        days,
			}, actor())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s -> %s (holder %s)\n", res.Sample.Name, res.Previous, res.Sample.Status, res.Sample.HolderName())
			if res.Note != "" {
				fmt.Fprintf(out, "note: %s\n", res.Note)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&destination, "to", "", "client receiving the sample (checkout)")
	cmd.Flags().StringVar(&address, "address", "", "delivery address (checkout)")
	cmd.Flags().IntVar(&days, "days", 0, "loan length in days (checkout, default from config)")
	return cmd
}

// newBotKeyCmd prints the bcrypt hash to put in BOT_KEY_HASH for a chat bot key.
func newBotKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot-key <key>",
		Short: "Hash a chat bot service key for BOT_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if len(key) < 16 {
				return errors.New("bot key must be at least 16 characters")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
