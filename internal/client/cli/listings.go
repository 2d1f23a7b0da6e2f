package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
)

// Listings prints all listings, or only the active ones with "active".
func (a *App) Listings(ctx context.Context, args []string) error {
	activeOnly := len(args) > 0 && args[0] == "active"
	items, err := a.api.Listings(ctx, activeOnly)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "no listings")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tVEHICLE\tYEAR\tKM\tPRICE\tPHOTOS\tACTIVE")
	for _, l := range items {
		fmt.Fprintf(tw, "%d\t%s %s %s\t%d/%d\t%d\t%.2f\t%d\t%t\n",
			l.ID, l.BrandName, l.ModelName, l.TrimName, l.ManufactureYear, l.ModelYear,
			l.Mileage, l.Price, len(l.Photos), l.Active)
	}
	return tw.Flush()
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	id, err := idArg(args, "toggle <id>")
	if err != nil {
		return err
	}
	active, err := a.api.ToggleListing(ctx, id)
	if err != nil {
		return err
	}
	state := "inactive"
	if active {
		state = "active"
	}
	fmt.Fprintf(a.out, "listing %d is now %s\n", id, state)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := idArg(args, "delete <id>")
	if err != nil {
		return err
	}
	if err := a.api.DeleteListing(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "listing %d deleted\n", id)
	return nil
}

func idArg(args []string, usage string) (int64, error) {
	if len(args) != 1 {
		return 0, usageError(usage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError(usage)
	}
	return id, nil
}
