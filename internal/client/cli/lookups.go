package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/vehiclefeed/internal/client/client"
)

func (a *App) Brands(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("brands <category>")
	}
	items, meta, err := a.api.Brands(ctx, args[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, b := range items {
		fmt.Fprintf(tw, "%d\t%s\n", b.ID, b.Name)
	}
	tw.Flush()
	a.printMeta(meta, len(items))
	return nil
}

func (a *App) Models(ctx context.Context, args []string) error {
	ints, err := intArgs(args, 1, 1, "models <category> <brand>")
	if err != nil {
		return err
	}
	items, meta, err := a.api.Models(ctx, args[0], ints[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, m := range items {
		fmt.Fprintf(tw, "%d\t%s\n", m.ID, m.Name)
	}
	tw.Flush()
	a.printMeta(meta, len(items))
	return nil
}

func (a *App) Years(ctx context.Context, args []string) error {
	ints, err := intArgs(args, 1, 2, "years <category> <brand> <model>")
	if err != nil {
		return err
	}
	items, meta, err := a.api.Years(ctx, args[0], ints[0], ints[1])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME")
	for _, y := range items {
		fmt.Fprintf(tw, "%s\t%s\n", y.Code, y.Name)
	}
	tw.Flush()
	a.printMeta(meta, len(items))
	return nil
}

func (a *App) Detail(ctx context.Context, args []string) error {
	const usage = "detail <category> <brand> <model> <code>"
	if len(args) != 4 {
		return usageError(usage)
	}
	ints, err := intArgs(args[:3], 1, 2, usage)
	if err != nil {
		return err
	}
	d, meta, err := a.api.Detail(ctx, args[0], ints[0], ints[1], args[3])
	if err != nil {
		return err
	}
	if d == nil {
		fmt.Fprintln(a.out, "trim not available")
		a.printMeta(meta, 0)
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "brand\t%s\n", d.BrandName)
	fmt.Fprintf(tw, "model\t%s\n", d.ModelName)
	fmt.Fprintf(tw, "year\t%d\n", d.Year)
	fmt.Fprintf(tw, "trim\t%s %s\n", d.TrimID, d.TrimName)
	fmt.Fprintf(tw, "fuel\t%s\n", orDash(d.FuelType))
	fmt.Fprintf(tw, "engine\t%s\n", orDash(d.EngineSpec))
	fmt.Fprintf(tw, "body\t%s\n", orDash(d.BodyCategory))
	fmt.Fprintf(tw, "displacement\t%s\n", orDash(d.Displacement))
	if d.DoorCount != nil {
		fmt.Fprintf(tw, "doors\t%d\n", *d.DoorCount)
	} else {
		fmt.Fprintln(tw, "doors\t-")
	}
	if d.ReferencePrice != nil {
		fmt.Fprintf(tw, "price\t%s (%s)\n", *d.ReferencePrice, orDash(d.ReferenceCode))
	}
	tw.Flush()
	a.printMeta(meta, 1)
	return nil
}

func (a *App) printMeta(meta client.LookupMeta, n int) {
	line := fmt.Sprintf("%d item(s) from %s", n, meta.Source)
	if meta.Degraded {
		line += " (mirror degraded)"
	}
	fmt.Fprintln(a.out, line)
}

// intArgs checks that args has skip+n entries and parses the n after skip
// as integers.
func intArgs(args []string, skip, n int, usage string) ([]int, error) {
	if len(args) != skip+n {
		return nil, usageError(usage)
	}
	out := make([]int, n)
	for i := range n {
		v, err := strconv.Atoi(args[skip+i])
		if err != nil {
			return nil, usageError(usage)
		}
		out[i] = v
	}
	return out, nil
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

