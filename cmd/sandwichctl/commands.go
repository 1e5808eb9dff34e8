package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"git.cscs.ch/openchami/chamicore-sandwich/pkg/client"
	"git.cscs.ch/openchami/chamicore-sandwich/pkg/types"
)

const defaultServer = "http://localhost:27780"

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "sandwichctl",
		Usage:   "Manage orders, sandwiches, recipes and resources",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Value:   defaultServer,
				Usage:   "Base URL of the sandwich API",
				Sources: cli.EnvVars("SANDWICHCTL_SERVER"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "Per-request timeout",
			},
		},
		Commands: []*cli.Command{
			entityCommand("orders", "order", func(c *client.Client) *client.Collection[types.Order, types.CreateOrderRequest, types.UpdateOrderRequest] {
				return c.Orders
			}),
			entityCommand("order-details", "order detail", func(c *client.Client) *client.Collection[types.OrderDetail, types.CreateOrderDetailRequest, types.UpdateOrderDetailRequest] {
				return c.OrderDetails
			}),
			entityCommand("sandwiches", "sandwich", func(c *client.Client) *client.Collection[types.Sandwich, types.CreateSandwichRequest, types.UpdateSandwichRequest] {
				return c.Sandwiches
			}),
			entityCommand("recipes", "recipe", func(c *client.Client) *client.Collection[types.Recipe, types.CreateRecipeRequest, types.UpdateRecipeRequest] {
				return c.Recipes
			}),
			entityCommand("resources", "resource", func(c *client.Client) *client.Collection[types.Resource, types.CreateResourceRequest, types.UpdateResourceRequest] {
				return c.Resources
			}),
		},
	}
}

func dataFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "JSON request body, or @path to read it from a file",
		Required: true,
	}
}

func entityCommand[W, C, U any](
	name, noun string,
	collection func(*client.Client) *client.Collection[W, C, U],
) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: fmt.Sprintf("Manage %s records", noun),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: fmt.Sprintf("List every %s", noun),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					col, err := collectionFor(cmd, collection)
					if err != nil {
						return err
					}
					items, err := col.List(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, items)
				},
			},
			{
				Name:      "get",
				Usage:     fmt.Sprintf("Show one %s", noun),
				ArgsUsage: "ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := idArg(cmd)
					if err != nil {
						return err
					}
					col, err := collectionFor(cmd, collection)
					if err != nil {
						return err
					}
					item, err := col.Get(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd, item)
				},
			},
			{
				Name:  "create",
				Usage: fmt.Sprintf("Create a %s", noun),
				Flags: []cli.Flag{dataFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					var req C
					if err := readData(cmd.String("data"), &req); err != nil {
						return err
					}
					col, err := collectionFor(cmd, collection)
					if err != nil {
						return err
					}
					item, err := col.Create(ctx, req)
					if err != nil {
						return err
					}
					return printJSON(cmd, item)
				},
			},
			{
				Name:      "update",
				Usage:     fmt.Sprintf("Change fields of a %s", noun),
				ArgsUsage: "ID",
				Flags:     []cli.Flag{dataFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := idArg(cmd)
					if err != nil {
						return err
					}
					var req U
					if err := readData(cmd.String("data"), &req); err != nil {
						return err
					}
					col, err := collectionFor(cmd, collection)
					if err != nil {
						return err
					}
					item, err := col.Update(ctx, id, req)
					if err != nil {
						return err
					}
					return printJSON(cmd, item)
				},
			},
			{
				Name:      "delete",
				Usage:     fmt.Sprintf("Delete a %s", noun),
				ArgsUsage: "ID",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id, err := idArg(cmd)
					if err != nil {
						return err
					}
					col, err := collectionFor(cmd, collection)
					if err != nil {
						return err
					}
					if err := col.Delete(ctx, id); err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.Root().Writer, "deleted %s %d\n", noun, id)
					return err
				},
			},
		},
	}
}

func collectionFor[W, C, U any](
	cmd *cli.Command,
	collection func(*client.Client) *client.Collection[W, C, U],
) (*client.Collection[W, C, U], error) {
	c, err := client.New(client.Config{
		BaseURL:   cmd.String("server"),
		Timeout:   cmd.Duration("timeout"),
		UserAgent: "sandwichctl/" + version,
	})
	if err != nil {
		return nil, err
	}
	return collection(c), nil
}

func idArg(cmd *cli.Command) (int64, error) {
	if cmd.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one ID argument")
	}
	raw := cmd.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: must be an integer", raw)
	}
	return id, nil
}

// readData decodes a --data value into v, rejecting fields the API would
// reject too.
func readData(data string, v any) error {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		raw = b
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("parsing --data: %w", err)
	}
	return nil
}

func printJSON(cmd *cli.Command, v any) error {
	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
